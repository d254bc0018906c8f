package enums

import "fmt"

// FilterTab selects which subset of reports a moderator view subscribes to.
type FilterTab string

const (
	FilterTabAll      FilterTab = "all"
	FilterTabPending  FilterTab = "pending"
	FilterTabApproved FilterTab = "approved"
)

func ParseFilterTab(v string) (FilterTab, error) {
	switch FilterTab(v) {
	case FilterTabAll, FilterTabPending, FilterTabApproved:
		return FilterTab(v), nil
	}
	return "", fmt.Errorf("unknown filter tab %q", v)
}
