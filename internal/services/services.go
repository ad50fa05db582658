package services

import (
	"context"

	"github.com/desertthunder/stemhub/internal/models"
)

// AccountsAPI is the account and session surface of the remote API.
type AccountsAPI interface {
	Register(ctx context.Context, in Registration) (*models.AuthPayload, error)
	Login(ctx context.Context, in Credentials) (*models.AuthPayload, error)
	Logout(ctx context.Context) error
	Check(ctx context.Context) (models.UserProfile, error)
	UpdateProfile(ctx context.Context, patch models.UserProfile) (models.UserProfile, error)
	ChangePassword(ctx context.Context, in PasswordChange) error
	RegenerateAPIKey(ctx context.Context) (string, error)
	SearchUsers(ctx context.Context, query string) ([]models.UserProfile, error)
}

// ProjectsAPI covers projects and their members.
type ProjectsAPI interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id models.ID) (*models.Project, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id models.ID, in models.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id models.ID) error
	ListMembers(ctx context.Context, projectID models.ID) (Partition[models.Member], error)
	AddMember(ctx context.Context, projectID, userID models.ID, role string) (*models.Member, error)
	RemoveMember(ctx context.Context, projectID, memberID models.ID) error
}

// VersionsAPI covers versions and the push approval workflow.
type VersionsAPI interface {
	ListVersions(ctx context.Context, projectID models.ID) (Partition[models.Version], error)
	GetVersion(ctx context.Context, id models.ID) (*models.Version, error)
	UploadVersion(ctx context.Context, in VersionUpload) (*models.PushStatus, error)
	UpdateVersion(ctx context.Context, id models.ID, in VersionPatch) (*models.Version, error)
	DeleteVersion(ctx context.Context, id models.ID) error
	PushStatus(ctx context.Context, pushID models.ID) (*models.PushStatus, error)
	ApprovePush(ctx context.Context, pushID models.ID) error
	RejectPush(ctx context.Context, pushID models.ID, reason string) error
	CancelPush(ctx context.Context, pushID models.ID) error
}

// SamplesAPI covers sample files.
type SamplesAPI interface {
	ListSamples(ctx context.Context, projectID models.ID) (Partition[models.Sample], error)
	GetSample(ctx context.Context, id models.ID) (*models.Sample, error)
	UploadSample(ctx context.Context, in SampleUpload) (*models.Sample, error)
	UpdateSample(ctx context.Context, id models.ID, in SamplePatch) (*models.Sample, error)
	DeleteSample(ctx context.Context, id models.ID) error
}

// ActivityAPI is the read-only audit trail.
type ActivityAPI interface {
	ProjectActivity(ctx context.Context, projectID models.ID, limit int, action string) (Partition[models.ActivityLog], error)
	UserActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
	GetActivity(ctx context.Context, id models.ID) (*models.ActivityLog, error)
}

// API is the full remote surface implemented by [Client].
type API interface {
	AccountsAPI
	ProjectsAPI
	VersionsAPI
	SamplesAPI
	ActivityAPI
}

var _ API = (*Client)(nil)
