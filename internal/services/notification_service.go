package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

// NotificationService delivers post-commit email/SMS alerts. It is
// strictly fire-and-forget: callers invoke it after a successful
// mutation, and a delivery failure is logged and dropped, never
// propagated back into the transaction that already committed.
type NotificationService struct {
	userRepo   repositories.UserRepository
	vendorRepo repositories.VendorRepository

	twClient *twilio.RestClient
	sgClient *sendgrid.Client

	fromPhone string
	fromEmail string
	orgName   string
	sandbox   bool
}

func NewNotificationService(
	userRepo repositories.UserRepository,
	vendorRepo repositories.VendorRepository,
	twClient *twilio.RestClient,
	sgClient *sendgrid.Client,
	fromPhone string,
	fromEmail string,
	orgName string,
	sandbox bool,
) *NotificationService {
	return &NotificationService{
		userRepo:   userRepo,
		vendorRepo: vendorRepo,
		twClient:   twClient,
		sgClient:   sgClient,
		fromPhone:  fromPhone,
		fromEmail:  fromEmail,
		orgName:    orgName,
		sandbox:    sandbox,
	}
}

// NotifyAssigned alerts the new assignee that work has been bound to
// them.
func (s *NotificationService) NotifyAssigned(ctx context.Context, req *models.MaintenanceRequest) {
	if !req.IsAssigned() {
		return
	}

	subject := fmt.Sprintf("New maintenance assignment: %s", req.Title)
	body := fmt.Sprintf(
		"You have been assigned maintenance request %s (%s, priority %s).",
		req.ID, req.Category, req.Priority,
	)

	var email, phone, name string
	switch *req.AssignedToKind {
	case models.AssigneeKindInternalUser:
		user, err := s.userRepo.GetByID(ctx, *req.AssignedToID)
		if err != nil || user == nil {
			utils.Logger.WithError(err).Warn("NotifyAssigned: assignee user lookup failed")
			return
		}
		email, phone = user.Email, user.PhoneNumber
		name = fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	case models.AssigneeKindVendor:
		vendor, err := s.vendorRepo.GetByID(ctx, *req.AssignedToID)
		if err != nil || vendor == nil {
			utils.Logger.WithError(err).Warn("NotifyAssigned: assignee vendor lookup failed")
			return
		}
		email, phone = vendor.Email, vendor.PhoneNumber
		name = vendor.CompanyName
	}

	s.sendEmail(name, email, subject, body)
	s.sendSMS(phone, body)
}

// NotifyStatusChanged alerts the request's creator after a committed
// transition.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, req *models.MaintenanceRequest) {
	creator, err := s.userRepo.GetByID(ctx, req.CreatedBy)
	if err != nil || creator == nil {
		utils.Logger.WithError(err).Warn("NotifyStatusChanged: creator lookup failed")
		return
	}

	subject := fmt.Sprintf("Maintenance request update: %s", req.Title)
	body := fmt.Sprintf(
		"Your maintenance request %s is now %s.",
		req.ID, models.DisplayStatus(req.Status),
	)

	s.sendEmail(fmt.Sprintf("%s %s", creator.FirstName, creator.LastName), creator.Email, subject, body)
	s.sendSMS(creator.PhoneNumber, body)
}

func (s *NotificationService) sendEmail(toName, toEmail, subject, body string) {
	if s.sgClient == nil || toEmail == "" {
		return
	}
	from := mail.NewEmail(s.orgName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	msg := mail.NewSingleEmail(from, subject, to, body, body)
	if s.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if _, err := s.sgClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Error("Failed to send notification email")
	}
}

func (s *NotificationService) sendSMS(toPhone, body string) {
	if s.twClient == nil || toPhone == "" || s.fromPhone == "" {
		return
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toPhone)
	params.SetFrom(s.fromPhone)
	params.SetBody(body)
	if _, err := s.twClient.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Error("Failed to send notification SMS")
	}
}
