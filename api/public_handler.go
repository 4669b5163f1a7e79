package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/store"
)

type publicHandler struct {
	responder Responder
	logger    zerolog.Logger
	catalog   *store.Catalog
}

func newPublicHandler(catalog *store.Catalog) publicHandler {
	logger := log.With().Str("handlerName", "publicHandler").Logger()

	return publicHandler{
		responder: NewResponder(logger),
		logger:    logger,
		catalog:   catalog,
	}
}

// home lists the categories shown on the landing page
// @Summary Home page
// @Description Lists the skill categories shown on the landing page
// @Tags Public
// @Produce json
// @Success 200 {object} HomeResponse "Categories in display order"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch categories"
// @Router / [get]
func (h publicHandler) home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.catalog.Categories.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, HomeResponse{Categories: categories})
	}
}

// resume assembles every resume section. Each section is its own cached read
// and they are fetched concurrently.
// @Summary Resume
// @Description Returns grouped skills, experience, education and certifications
// @Tags Public
// @Produce json
// @Success 200 {object} ResumeResponse "Every resume section"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch a section"
// @Router /resume [get]
func (h publicHandler) resume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			categories     []models.Category
			subcategories  []models.Subcategory
			skills         []models.Skill
			experiences    []models.Experience
			education      []models.Education
			certifications []models.Certification
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) { categories, err = h.catalog.Categories.List(ctx); return })
		g.Go(func() (err error) { subcategories, err = h.catalog.Subcategories.List(ctx); return })
		g.Go(func() (err error) { skills, err = h.catalog.Skills.List(ctx); return })
		g.Go(func() (err error) { experiences, err = h.catalog.Experiences.List(ctx); return })
		g.Go(func() (err error) { education, err = h.catalog.Education.List(ctx); return })
		g.Go(func() (err error) { certifications, err = h.catalog.Certifications.List(ctx); return })
		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		response := ResumeResponse{
			Skills:         groupSkills(categories, subcategories, skills),
			Experiences:    make([]DatedExperience, 0, len(experiences)),
			Education:      make([]DatedEducation, 0, len(education)),
			Certifications: certifications,
		}
		for _, e := range experiences {
			response.Experiences = append(response.Experiences, DatedExperience{Experience: e, Period: e.DateRange()})
		}
		for _, e := range education {
			response.Education = append(response.Education, DatedEducation{Education: e, Period: e.DateRange()})
		}
		h.responder.WriteJSON(w, response)
	}
}

// groupSkills nests skills under their subcategory and category, keeping the
// order of each input list. Groups without skills are left out.
func groupSkills(categories []models.Category, subcategories []models.Subcategory, skills []models.Skill) []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(categories))
	for _, category := range categories {
		group := CategoryGroup{Category: category}
		for _, sub := range subcategories {
			if sub.CategoryID != category.ID {
				continue
			}
			var members []models.Skill
			for _, skill := range skills {
				if skill.SubcategoryID == sub.ID {
					members = append(members, skill)
				}
			}
			if len(members) > 0 {
				group.Subcategories = append(group.Subcategories, SkillGroup{Subcategory: sub, Skills: members})
			}
		}
		if len(group.Subcategories) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// showcase lists projects filtered by ?category= and any number of ?tag=.
// A project must match the category and carry every selected tag.
// @Summary Project showcase
// @Description Lists projects with the available categories and tags
// @Tags Public
// @Produce json
// @Param category query string false "Only projects in this category"
// @Param tag query []string false "Only projects carrying every tag" collectionFormat(multi)
// @Success 200 {object} ShowcaseResponse "Filtered projects"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch projects"
// @Router /showcase [get]
func (h publicHandler) showcase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			projects []models.Project
			tags     []string
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) { projects, err = h.catalog.Projects.List(ctx); return })
		g.Go(func() (err error) { tags, err = h.catalog.Tags.Get(ctx); return })
		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		filter := parseShowcaseFilter(r)
		h.responder.WriteJSON(w, ShowcaseResponse{
			Projects:   filterProjects(projects, filter),
			Categories: projectCategories(projects),
			Tags:       tags,
			Filter:     filter,
		})
	}
}

func parseShowcaseFilter(r *http.Request) ShowcaseFilter {
	q := r.URL.Query()
	filter := ShowcaseFilter{Category: strings.TrimSpace(q.Get("category")), Tags: []string{}}
	for _, tag := range q["tag"] {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(filter.Tags, tag) {
			filter.Tags = append(filter.Tags, tag)
		}
	}
	filter.Active = len(filter.Tags)
	if filter.Category != "" {
		filter.Active++
	}
	return filter
}

func filterProjects(projects []models.Project, filter ShowcaseFilter) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.InCategory(filter.Category) && p.HasAllTags(filter.Tags) {
			out = append(out, p)
		}
	}
	return out
}

// projectCategories returns the distinct non-empty categories in first-seen order
func projectCategories(projects []models.Project) []string {
	categories := []string{}
	for _, p := range projects {
		if p.Category == nil || *p.Category == "" || slices.Contains(categories, *p.Category) {
			continue
		}
		categories = append(categories, *p.Category)
	}
	return categories
}

// project returns one project by its slug
// @Summary Get project by slug
// @Description Returns a single project with its tags and metrics
// @Tags Public
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} models.Project "Project details"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch project"
// @Router /showcase/{slug} [get]
func (h publicHandler) project() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.catalog.ProjectBySlug.Get(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}
