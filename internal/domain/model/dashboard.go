package model

import "encoding/json"

// DashboardTab groups orders on the user dashboard.
type DashboardTab string

const (
	TabAll      DashboardTab = "all"
	TabUpcoming DashboardTab = "upcoming"
	TabEditing  DashboardTab = "editing"
	TabDone     DashboardTab = "done"
)

// DashboardTabs lists the tabs in display order.
var DashboardTabs = []DashboardTab{TabAll, TabUpcoming, TabEditing, TabDone}

// Includes reports whether an order with status s belongs to the tab.
func (t DashboardTab) Includes(s OrderStatus) bool {
	switch t {
	case TabAll:
		return true
	case TabUpcoming:
		return s == OrderPending
	case TabEditing:
		return s == OrderInProgress
	case TabDone:
		return s == OrderCompleted
	default:
		return false
	}
}

// Dashboard is the combined landing view of a user.
type Dashboard struct {
	// Summary is the raw dashboard endpoint payload.
	Summary       json.RawMessage      `json:"summary,omitempty"`
	Orders        []Order              `json:"orders"`
	Conversations []Conversation       `json:"conversations"`
	Tabs          map[DashboardTab]int `json:"tabs"`
	Unread        int                  `json:"unread"`
}

// NewDashboard computes tab counts and unread messages.
func NewDashboard(summary json.RawMessage, orders []Order, convs []Conversation) Dashboard {
	d := Dashboard{
		Summary:       summary,
		Orders:        orders,
		Conversations: convs,
		Tabs:          make(map[DashboardTab]int, len(DashboardTabs)),
	}
	for _, tab := range DashboardTabs {
		d.Tabs[tab] = 0
	}
	for _, o := range orders {
		for _, tab := range DashboardTabs {
			if tab.Includes(o.Status) {
				d.Tabs[tab]++
			}
		}
	}
	for _, c := range convs {
		d.Unread += c.UnreadCount
	}
	return d
}

// OrdersIn returns the orders that belong to tab.
func (d Dashboard) OrdersIn(tab DashboardTab) []Order {
	var out []Order
	for _, o := range d.Orders {
		if tab.Includes(o.Status) {
			out = append(out, o)
		}
	}
	return out
}
