package task

// SortOrder selects the list ordering.
type SortOrder string

const (
	SortByUpdatedDesc SortOrder = "updated_desc"
	SortByUpdatedAsc  SortOrder = "updated_asc"
)

const defaultListLimit = 50

// ListOptions filter and bound a listing.
type ListOptions struct {
	Statuses   []Status
	Tool       string
	UpdatedGTE int64
	UpdatedLTE int64
	HasResult  *bool
	Limit      int
	Offset     int
	Order      SortOrder
}

func (o *ListOptions) applyDefaults() {
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Order != SortByUpdatedAsc {
		o.Order = SortByUpdatedDesc
	}
}

// ListOption mutates ListOptions.
type ListOption func(*ListOptions)

// WithStatuses restricts the listing to the given statuses.
func WithStatuses(statuses ...Status) ListOption {
	return func(o *ListOptions) { o.Statuses = append(o.Statuses, statuses...) }
}

// WithTool restricts the listing to one tool name.
func WithTool(tool string) ListOption {
	return func(o *ListOptions) { o.Tool = tool }
}

// WithUpdatedRange bounds the listing by update time (unix seconds).
func WithUpdatedRange(gte, lte int64) ListOption {
	return func(o *ListOptions) {
		o.UpdatedGTE = gte
		o.UpdatedLTE = lte
	}
}

// WithHasResult filters by result presence.
func WithHasResult(has bool) ListOption {
	return func(o *ListOptions) { o.HasResult = &has }
}

// WithLimit caps the listing size.
func WithLimit(limit int) ListOption {
	return func(o *ListOptions) { o.Limit = limit }
}

// WithOffset skips the first records.
func WithOffset(offset int) ListOption {
	return func(o *ListOptions) { o.Offset = offset }
}

// WithOrder selects the ordering.
func WithOrder(order SortOrder) ListOption {
	return func(o *ListOptions) { o.Order = order }
}

func buildListOptions(opts []ListOption) ListOptions {
	var options ListOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.applyDefaults()
	return options
}

// Stats aggregates operation counts by status.
type Stats struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Running         int64 `json:"running"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	OldestUpdatedAt int64 `json:"oldest_updated_at"`
	NewestUpdatedAt int64 `json:"newest_updated_at"`
}
