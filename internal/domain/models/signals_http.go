package models

// Requests and responses of the status HTTP endpoints.

type EvaluationsRequest struct {
	Limit    int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
	Decision string `query:"decision" json:"decision" default:"any" validate:"oneof=any buy sell none"`
}

type FeedStatus struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

type StatusResponse struct {
	Loop           LoopStatus `json:"loop"`
	Feed           FeedStatus `json:"feed"`
	PendingIntents int        `json:"pending_intents"`
}
