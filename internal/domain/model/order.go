// Package model defines the backend resources the cutdesk client reads and
// writes: orders, conversations, the services catalogue and pool users.
package model

import (
	"strings"
	"time"

	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

// OrderStatus is the editing lifecycle of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderInProgress, OrderCompleted, OrderCancelled}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Orientation is the output framing of an edited video.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
	OrientationBoth       Orientation = "both"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == OrientationVertical || o == OrientationHorizontal || o == OrientationBoth
}

// SelectedService is one catalogue entry chosen for an order.
type SelectedService struct {
	PublicID    string      `json:"publicId"`
	Orientation Orientation `json:"orientation,omitempty"`
	Duration    *int        `json:"duration,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// Order is an editing order placed by a user.
type Order struct {
	PublicID         string            `json:"publicId"`
	UserEmail        string            `json:"userEmail"`
	CoupleName       string            `json:"coupleName"`
	WeddingDate      string            `json:"weddingDate"`
	DeliveryMethod   string            `json:"deliveryMethod,omitempty"`
	MaterialLink     string            `json:"materialLink,omitempty"`
	MaterialSizeGB   float64           `json:"materialSizeGb"`
	CameraCount      int               `json:"cameraCount"`
	GeneralNotes     string            `json:"generalNotes,omitempty"`
	ReferenceVideo   string            `json:"referenceVideo,omitempty"`
	ExportFPS        string            `json:"exportFps,omitempty"`
	ExportBitrate    string            `json:"exportBitrate,omitempty"`
	ExportAspect     string            `json:"exportAspect,omitempty"`
	ExportResolution string            `json:"exportResolution,omitempty"`
	SelectedServices []SelectedService `json:"selectedServices"`
	ServicesTotal    *float64          `json:"servicesTotal,omitempty"`
	CameraSurcharge  float64           `json:"cameraSurcharge"`
	TotalPrice       *float64          `json:"totalPrice,omitempty"`
	Status           OrderStatus       `json:"status"`
	AdminNotes       string            `json:"adminNotes,omitempty"`
	DeliveryLink     string            `json:"deliveryLink,omitempty"`
	CreatedAt        time.Time         `json:"createdAt,omitzero"`
	UpdatedAt        time.Time         `json:"updatedAt,omitzero"`
}

// CreateOrderRequest is the payload for a new order.
type CreateOrderRequest struct {
	CoupleName       string            `json:"coupleName"`
	WeddingDate      string            `json:"weddingDate"`
	DeliveryMethod   string            `json:"deliveryMethod,omitempty"`
	MaterialLink     string            `json:"materialLink,omitempty"`
	MaterialSizeGB   float64           `json:"materialSizeGb"`
	CameraCount      int               `json:"cameraCount"`
	GeneralNotes     string            `json:"generalNotes,omitempty"`
	ReferenceVideo   string            `json:"referenceVideo,omitempty"`
	ExportFPS        string            `json:"exportFps,omitempty"`
	ExportBitrate    string            `json:"exportBitrate,omitempty"`
	ExportAspect     string            `json:"exportAspect,omitempty"`
	ExportResolution string            `json:"exportResolution,omitempty"`
	SelectedServices []SelectedService `json:"selectedServices"`
}

const weddingDateLayout = "2006-01-02"

// Validate checks the required fields of a new order.
func (r *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.CoupleName) == "" {
		return apperrors.ValidationField("coupleName", "couple name is required")
	}
	if _, err := time.Parse(weddingDateLayout, strings.TrimSpace(r.WeddingDate)); err != nil {
		return apperrors.ValidationField("weddingDate", "wedding date must be YYYY-MM-DD")
	}
	if r.MaterialSizeGB < 0 {
		return apperrors.ValidationField("materialSizeGb", "material size cannot be negative")
	}
	if r.CameraCount < 1 {
		return apperrors.ValidationField("cameraCount", "at least one camera is required")
	}
	if len(r.SelectedServices) == 0 {
		return apperrors.ValidationField("selectedServices", "select at least one service")
	}
	for _, s := range r.SelectedServices {
		if strings.TrimSpace(s.PublicID) == "" {
			return apperrors.ValidationField("selectedServices", "service id is required")
		}
		if s.Orientation != "" && !s.Orientation.Valid() {
			return apperrors.ValidationField("selectedServices", "unknown orientation "+string(s.Orientation))
		}
	}
	return nil
}

// AdminOrderUpdate is the admin PATCH payload. Empty notes and links are
// sent as null so the backend clears them.
type AdminOrderUpdate struct {
	Status       OrderStatus `json:"status"`
	AdminNotes   *string     `json:"adminNotes"`
	DeliveryLink *string     `json:"deliveryLink"`
}

// NewAdminOrderUpdate trims notes and link, turning blanks into null.
func NewAdminOrderUpdate(status OrderStatus, notes, link string) AdminOrderUpdate {
	return AdminOrderUpdate{
		Status:       status,
		AdminNotes:   nullable(notes),
		DeliveryLink: nullable(link),
	}
}

// Validate checks the status.
func (u AdminOrderUpdate) Validate() error {
	if !u.Status.Valid() {
		return apperrors.ValidationField("status", "unknown order status "+string(u.Status))
	}
	return nil
}

// Apply folds the update into o the way the admin view does after a save.
func (u AdminOrderUpdate) Apply(o *Order) {
	o.Status = u.Status
	o.AdminNotes = deref(u.AdminNotes)
	o.DeliveryLink = deref(u.DeliveryLink)
}

// OrderQuery filters the admin order list.
type OrderQuery struct {
	Status    OrderStatus
	UserEmail string
}

// Params returns the query parameters; unset fields are omitted.
func (q OrderQuery) Params() map[string]any {
	p := map[string]any{}
	if q.Status != "" {
		p["status"] = string(q.Status)
	}
	if s := strings.TrimSpace(q.UserEmail); s != "" {
		p["userEmail"] = s
	}
	return p
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
