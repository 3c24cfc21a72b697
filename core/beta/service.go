package beta

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("application not found")
	ErrAlreadyApplied = errors.New("a pending application already exists for this user")
	ErrAlreadyDecided = errors.New("this application has already been decided")
	ErrAlreadyBeta    = errors.New("this user already has beta access")
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		// QueryApplications applies AND operation on available QueryFilter
		// fields, ordered by CreatedAt ascending.
		QueryApplications(ctx context.Context, filter *QueryFilter) ([]Application, error)
		GetApplication(ctx context.Context, id string) (Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, usrRepo: usrRepo, mailSvc: mailSvc}
}

// Apply files a beta application for a user; one pending application per
// user, and existing beta testers cannot re-apply.
func (svc *Service) Apply(ctx context.Context, usr user.User, na NewApplication) (Application, error) {
	if usr.IsBeta() || usr.IsAdmin() {
		return Application{}, core.NewValidationError(ErrAlreadyBeta)
	}

	pending, err := svc.repo.QueryApplications(ctx, &QueryFilter{Status: StatusPending, UserID: usr.ID})
	if err != nil {
		return Application{}, err
	}
	if len(pending) > 0 {
		return Application{}, core.NewValidationError(ErrAlreadyApplied)
	}

	app := Application{
		UserID:     usr.ID,
		Email:      usr.Email,
		Motivation: na.Motivation,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if app, err = svc.repo.CreateApplication(ctx, app); err != nil {
		return Application{}, err
	}

	svc.sendEmail(usr, "We received your beta application", "beta-received")
	return app, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplication(ctx, id)
}

// Approve grants the applicant the beta role and notifies them.
func (svc *Service) Approve(ctx context.Context, id string, decidedBy user.User) (Application, error) {
	app, err := svc.decide(ctx, id, StatusApproved, decidedBy)
	if err != nil {
		return Application{}, err
	}

	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: app.UserID})
	if err != nil {
		return Application{}, err
	}
	if !usr.IsBeta() {
		usr.Roles = append(usr.Roles, user.RoleBeta)
		usr.UpdatedAt = time.Now().UTC()
		if usr, err = svc.usrRepo.UpdateUser(ctx, usr); err != nil {
			return Application{}, err
		}
	}

	svc.sendEmail(usr, "Welcome to the beta!", "beta-approved")
	return app, nil
}

// Reject declines the application and notifies the applicant.
func (svc *Service) Reject(ctx context.Context, id string, decidedBy user.User) (Application, error) {
	app, err := svc.decide(ctx, id, StatusRejected, decidedBy)
	if err != nil {
		return Application{}, err
	}

	if usr, uerr := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: app.UserID}); uerr == nil {
		svc.sendEmail(usr, "About your beta application", "beta-rejected")
	}
	return app, nil
}

func (svc *Service) decide(ctx context.Context, id, status string, decidedBy user.User) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Decided() {
		return Application{}, core.NewValidationError(ErrAlreadyDecided)
	}

	now := time.Now().UTC()
	app.Status = status
	app.DecidedBy = &decidedBy.ID
	app.DecidedAt = &now
	return svc.repo.UpdateApplication(ctx, app)
}

func (svc *Service) sendEmail(usr user.User, subject, template string) {
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: struct{ Name string }{usr.Name},
	})
}
