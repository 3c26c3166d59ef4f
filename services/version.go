package services

import (
	"encoding/json"
	"sync"

	"evara-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VersionService owns invite creation and the version lifecycle. The single
// rule it exists to protect: once an invite has any versions, exactly one of
// them is active, and version numbers strictly increase from 1.
type VersionService struct {
	DB        *gorm.DB
	Analytics *AnalyticsService

	// One mutex per invite id so concurrent CreateVersion calls for the same
	// invite are serialized; different invites proceed in parallel.
	locks sync.Map
}

func NewVersionService(db *gorm.DB, analytics *AnalyticsService) *VersionService {
	return &VersionService{DB: db, Analytics: analytics}
}

func (vs *VersionService) lockInvite(inviteID uuid.UUID) *sync.Mutex {
	mu, _ := vs.locks.LoadOrStore(inviteID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func applyContent(version *models.InviteVersion, content models.InviteContentRequest) {
	version.Title = content.InviteTitle
	version.Text = content.InviteText
	version.SetMedia(content.InviteImages, content.InviteVideos)
	version.BackgroundColor = content.BackgroundColor
	if version.BackgroundColor == "" {
		version.BackgroundColor = "#ffffff"
	}
	version.TextColor = content.TextColor
	if version.TextColor == "" {
		version.TextColor = "#000000"
	}
	version.FontFamily = content.FontFamily
	if version.FontFamily == "" {
		version.FontFamily = "Arial"
	}
	version.TemplateStyle = encodeStyle(content.TemplateStyle)
}

func encodeStyle(style map[string]string) string {
	if len(style) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(style)
	return string(data)
}

// CreateInvite creates the master record, version #1 (active) and its zeroed
// analytics row in one transaction. Invalid client/event references fail
// before anything is written.
func (vs *VersionService) CreateInvite(req models.CreateInviteRequest, createdBy uuid.UUID) (*models.Invite, *models.InviteVersion, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, nil, NewValidationError("client_id", "invalid client ID")
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, nil, NewValidationError("event_id", "invalid event ID")
	}

	var client models.Client
	if err := vs.DB.First(&client, "id = ?", clientID).Error; err != nil {
		return nil, nil, NewValidationError("client_id", "client does not exist")
	}
	var event models.Event
	if err := vs.DB.First(&event, "id = ?", eventID).Error; err != nil {
		return nil, nil, NewValidationError("event_id", "event does not exist")
	}

	invite := models.Invite{
		ClientID:    clientID,
		EventID:     eventID,
		Name:        req.InviteName,
		Description: req.InviteDescription,
		CreatedBy:   createdBy,
	}

	version := models.InviteVersion{
		VersionNumber: 1,
		IsActive:      true,
	}
	applyContent(&version, req.InviteContentRequest)

	err = vs.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invite).Error; err != nil {
			return err
		}
		version.InviteID = invite.ID
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		return vs.Analytics.Initialize(tx, invite.ID, version.ID)
	})
	if err != nil {
		return nil, nil, &TransactionError{Op: "create invite", Err: err}
	}

	return &invite, &version, nil
}

// CreateVersion appends the next version of an existing invite: deactivate
// the current active version, insert the new one as active with number
// max+1, and seed its analytics — all in one transaction. Calls for the same
// invite are serialized to keep the single-active invariant under races.
func (vs *VersionService) CreateVersion(inviteID uuid.UUID, content models.InviteContentRequest) (*models.InviteVersion, error) {
	mu := vs.lockInvite(inviteID)
	mu.Lock()
	defer mu.Unlock()

	var invite models.Invite
	if err := vs.DB.First(&invite, "id = ?", inviteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	version := models.InviteVersion{
		InviteID: inviteID,
		IsActive: true,
	}
	applyContent(&version, content)

	err := vs.DB.Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.InviteVersion{}).
			Where("invite_id = ?", inviteID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		version.VersionNumber = maxVersion + 1

		if err := tx.Model(&models.InviteVersion{}).
			Where("invite_id = ? AND is_active = ?", inviteID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		return vs.Analytics.Initialize(tx, inviteID, version.ID)
	})
	if err != nil {
		return nil, &TransactionError{Op: "create version", Err: err}
	}

	return &version, nil
}

// ListVersions returns all versions of an invite, newest first.
func (vs *VersionService) ListVersions(inviteID uuid.UUID) ([]models.InviteVersion, error) {
	var invite models.Invite
	if err := vs.DB.First(&invite, "id = ?", inviteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var versions []models.InviteVersion
	if err := vs.DB.Where("invite_id = ?", inviteID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// GetVersion fetches one version by id.
func (vs *VersionService) GetVersion(versionID uuid.UUID) (*models.InviteVersion, error) {
	var version models.InviteVersion
	if err := vs.DB.First(&version, "id = ?", versionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &version, nil
}
