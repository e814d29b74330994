package controllers

import (
	"linkbio/internal/models/db_models"
	"linkbio/internal/models/response_models"
	"linkbio/pkg/utils"
)

func toSubscriptionResponses(subs []db_models.Subscription) []response_models.SubscriptionResponse {
	result := make([]response_models.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		result = append(result, response_models.SubscriptionResponse{
			ID:        s.ID.String(),
			PlanID:    s.PlanID.String(),
			PlanName:  s.Plan.Name,
			Status:    string(s.Status),
			StartDate: utils.FormatRFC3339(utils.FromUnixSeconds(derefInt64(s.StartDate))),
			EndDate:   utils.FormatRFC3339(utils.FromUnixSeconds(derefInt64(s.EndDate))),
		})
	}
	return result
}
