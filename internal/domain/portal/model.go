package portal

// Stats is the operator-facing platform summary. Pending counts are
// taken as stored; requests that lapsed without being observed still
// count as pending.
type Stats struct {
	TotalRecords    int `json:"total_records"`
	TotalPatients   int `json:"total_patients"`
	TotalProviders  int `json:"total_providers"`
	PendingRequests int `json:"pending_requests"`
}
