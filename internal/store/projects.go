package store

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
)

// ProjectsState is a snapshot of the projects store.
type ProjectsState struct {
	Flags

	Projects []models.Project
	Current  *models.Project
	Members  Partitions[models.Member]
}

func (s ProjectsState) clone() ProjectsState {
	s.Projects = slices.Clone(s.Projects)
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	s.Members = s.Members.Clone()
	return s
}

// Projects holds the flat project list, the selected project and member partitions.
type Projects struct {
	container[ProjectsState]

	api    services.ProjectsAPI
	logger *log.Logger
}

// NewProjects creates an empty projects store.
func NewProjects(api services.ProjectsAPI, logger *log.Logger) *Projects {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	p := &Projects{api: api, logger: logger}
	p.init(ProjectsState{Members: Partitions[models.Member]{}}, ProjectsState.clone)
	return p
}

// List replaces the project list with the server's.
func (p *Projects) List(ctx context.Context) ([]models.Project, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	projects, err := p.api.ListProjects(ctx)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to fetch projects")) })
		return nil, err
	}

	p.update(func(s *ProjectsState) {
		s.Projects = slices.Clone(projects)
		s.succeed()
	})
	return projects, nil
}

// Get fetches one project and makes it current.
func (p *Projects) Get(ctx context.Context, id models.ID) (*models.Project, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	project, err := p.api.GetProject(ctx, id)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to fetch project")) })
		return nil, err
	}

	p.update(func(s *ProjectsState) {
		c := *project
		s.Current = &c
		s.succeed()
	})
	return project, nil
}

// Create appends the new project to the list.
func (p *Projects) Create(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	project, err := p.api.CreateProject(ctx, in)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to create project")) })
		return nil, err
	}

	p.update(func(s *ProjectsState) {
		s.Projects = append(s.Projects, *project)
		s.succeed()
	})
	return project, nil
}

// Update replaces the project by id in the list, and as current when it is selected.
func (p *Projects) Update(ctx context.Context, id models.ID, in models.ProjectInput) (*models.Project, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	project, err := p.api.UpdateProject(ctx, id, in)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to update project")) })
		return nil, err
	}
	if project.ID == "" {
		project.ID = id
	}

	p.update(func(s *ProjectsState) {
		if i := slices.IndexFunc(s.Projects, func(e models.Project) bool { return e.ID == project.ID }); i >= 0 {
			s.Projects[i] = *project
		}
		if s.Current != nil && s.Current.ID == project.ID {
			c := *project
			s.Current = &c
		}
		s.succeed()
	})
	return project, nil
}

// Delete removes the project by id and deselects it.
func (p *Projects) Delete(ctx context.Context, id models.ID) error {
	p.update(func(s *ProjectsState) { s.begin() })

	if err := p.api.DeleteProject(ctx, id); err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to delete project")) })
		return err
	}

	p.update(func(s *ProjectsState) {
		s.Projects = slices.DeleteFunc(s.Projects, func(e models.Project) bool { return e.ID == id })
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
		s.Members.Clear(id)
		s.succeed()
	})
	return nil
}

// ListMembers replaces the member partition of projectID.
func (p *Projects) ListMembers(ctx context.Context, projectID models.ID) ([]models.Member, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	page, err := p.api.ListMembers(ctx, projectID)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to fetch members")) })
		return nil, err
	}

	p.update(func(s *ProjectsState) {
		s.Members.Replace(page.ProjectID, page.Items)
		s.succeed()
	})
	return page.Items, nil
}

// AddMember appends the new member to projectID's partition.
func (p *Projects) AddMember(ctx context.Context, projectID, userID models.ID, role string) (*models.Member, error) {
	p.update(func(s *ProjectsState) { s.begin() })

	member, err := p.api.AddMember(ctx, projectID, userID, role)
	if err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to add member")) })
		return nil, err
	}

	p.update(func(s *ProjectsState) {
		s.Members.Append(projectID, *member)
		s.succeed()
	})
	return member, nil
}

// RemoveMember deletes memberID from projectID's partition.
func (p *Projects) RemoveMember(ctx context.Context, projectID, memberID models.ID) error {
	p.update(func(s *ProjectsState) { s.begin() })

	if err := p.api.RemoveMember(ctx, projectID, memberID); err != nil {
		p.update(func(s *ProjectsState) { s.fail(services.ErrorText(err, "Failed to remove member")) })
		return err
	}

	p.update(func(s *ProjectsState) {
		s.Members.RemoveFrom(projectID, memberID)
		s.succeed()
	})
	return nil
}

// ClearCurrent deselects the current project.
func (p *Projects) ClearCurrent() {
	p.update(func(s *ProjectsState) { s.Current = nil })
}

// ClearError drops the current error message.
func (p *Projects) ClearError() {
	p.update(func(s *ProjectsState) { s.Error = "" })
}
