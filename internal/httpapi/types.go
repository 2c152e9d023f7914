package httpapi

import (
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
)

// ── Requests ─────────────────────────────────────────────────────────────────

// expirySpec selects how the passcode expiry is derived.  An absolute
// instant wins over days/hours; days and hours combine additively; all
// empty means the default window.
type expirySpec struct {
	Days  int        `json:"days,omitempty" validate:"omitempty,min=1,max=365"`
	Hours int        `json:"hours,omitempty" validate:"omitempty,min=1,max=8760"`
	At    *time.Time `json:"at,omitempty" validate:"omitempty,excluded_with=Days Hours"`
}

func (e expirySpec) toDomain() credential.Expiry {
	switch {
	case e.At != nil:
		return credential.Expiry{Mode: credential.ExpiryAbsolute, At: *e.At}
	case e.Days > 0 || e.Hours > 0:
		return credential.Expiry{Mode: credential.ExpiryRelative, Days: e.Days, Hours: e.Hours}
	default:
		return credential.Expiry{}
	}
}

type scheduleEntryRequest struct {
	UnitID     string     `json:"unit_id" validate:"required"`
	BuildingID string     `json:"building_id"`
	Kind       string     `json:"kind" validate:"omitempty,oneof=visitor member"`
	Name       string     `json:"name" validate:"required,max=120"`
	Email      string     `json:"email" validate:"omitempty,email"`
	Phone      string     `json:"phone" validate:"omitempty,e164"`
	Comment    string     `json:"comment" validate:"max=500"`
	ExpectedAt *time.Time `json:"expected_at,omitempty"`

	// Access is "auto", "custom", or "none".  Code is required for custom.
	Access string     `json:"access" validate:"required,oneof=auto custom none"`
	Code   string     `json:"code,omitempty" validate:"required_if=Access custom"`
	Policy string     `json:"policy" validate:"omitempty,oneof=single multi"`
	Limit  int        `json:"limit,omitempty" validate:"omitempty,min=1"`
	Expiry expirySpec `json:"expiry"`
}

type regeneratePasscodeRequest struct {
	Policy string     `json:"policy" validate:"omitempty,oneof=single multi"`
	Limit  int        `json:"limit,omitempty" validate:"omitempty,min=1"`
	Expiry expirySpec `json:"expiry"`
}

type accessCheckRequest struct {
	UnitID string `json:"unit_id" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

type upsertDirectoryRequest struct {
	BuildingID  string `json:"building_id" validate:"required"`
	UnitID      string `json:"unit_id" validate:"required"`
	Floor       string `json:"floor"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
	CallAddress string `json:"call_address" validate:"required"`
	HideWhenDND bool   `json:"hide_when_dnd"`
	ShowDNDIcon bool   `json:"show_dnd_icon"`

	DNDEnabled        bool        `json:"dnd_enabled"`
	DNDScheduleActive bool        `json:"dnd_schedule_active"`
	DNDWindows        []dndWindow `json:"dnd_windows" validate:"max=2,dive"`
}

type dndWindow struct {
	Start int `json:"start" validate:"min=0,max=1439"`
	End   int `json:"end" validate:"min=0,max=1440"`
}

func policyFromRequest(kind string, limit int) credential.UsagePolicy {
	if kind == "multi" {
		return credential.UsagePolicy{Kind: credential.MultiUse, Limit: limit}
	}
	return credential.UsagePolicy{Kind: credential.SingleUse}
}

func grantFromRequest(access, code string) credential.AccessGrant {
	switch access {
	case "custom":
		return credential.AccessGrant{Kind: credential.GrantCustom, Code: code}
	case "none":
		return credential.AccessGrant{Kind: credential.GrantNone}
	default:
		return credential.AccessGrant{Kind: credential.GrantAuto}
	}
}

func (r upsertDirectoryRequest) toDomain(id string) dnd.DirectoryEntry {
	windows := make([]dnd.Window, 0, len(r.DNDWindows))
	for _, w := range r.DNDWindows {
		windows = append(windows, dnd.Window{Start: w.Start, End: w.End})
	}
	return dnd.DirectoryEntry{
		ID:          id,
		BuildingID:  r.BuildingID,
		UnitID:      r.UnitID,
		Floor:       r.Floor,
		DisplayName: r.DisplayName,
		CallAddress: r.CallAddress,
		HideWhenDND: r.HideWhenDND,
		ShowDNDIcon: r.ShowDNDIcon,
		DND: dnd.Settings{
			Enabled:        r.DNDEnabled,
			ScheduleActive: r.DNDScheduleActive,
			Windows:        windows,
		},
	}
}

// ── Responses ────────────────────────────────────────────────────────────────

type entryResponse struct {
	ID         string     `json:"id"`
	UnitID     string     `json:"unit_id"`
	BuildingID string     `json:"building_id,omitempty"`
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	ExpectedAt time.Time  `json:"expected_at"`
	Status     string     `json:"status"`
	Code       string     `json:"code,omitempty"`
	CodeExpiry *time.Time `json:"code_expiry,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func entryToResponse(e entry.Entry) entryResponse {
	resp := entryResponse{
		ID:         e.ID,
		UnitID:     e.UnitID,
		BuildingID: e.BuildingID,
		Kind:       string(e.Kind),
		Name:       e.Name,
		Email:      e.Email,
		Phone:      e.Phone,
		Comment:    e.Comment,
		ExpectedAt: e.ExpectedAt,
		Status:     string(e.Status),
		Code:       e.Credential.Code,
		UpdatedAt:  e.UpdatedAt,
	}
	if !e.Credential.ExpiresAt.IsZero() {
		t := e.Credential.ExpiresAt
		resp.CodeExpiry = &t
	}
	return resp
}

type accessCheckResponse struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
	Name    string `json:"name,omitempty"`
}

type directoryItem struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	Floor       string `json:"floor"`
	DisplayName string `json:"display_name"`
	CallAddress string `json:"call_address"`
	Blocked     bool   `json:"blocked"`
	ShowDNDIcon bool   `json:"show_dnd_icon"`
}

func directoryToItems(entries []dnd.VisibleEntry) []directoryItem {
	items := make([]directoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, directoryItem{
			ID:          e.ID,
			UnitID:      e.UnitID,
			Floor:       e.Floor,
			DisplayName: e.DisplayName,
			CallAddress: e.CallAddress,
			Blocked:     e.Blocked,
			ShowDNDIcon: e.ShowDNDIcon,
		})
	}
	return items
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
