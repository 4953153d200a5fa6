package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ubilite/models"
)

type incomingSMSPayload struct {
	ID     string `json:"id" form:"id"`
	Sender string `json:"from" form:"from" binding:"required"`
	Body   string `json:"text" form:"text" binding:"required"`
}

// HandleSMS is the aggregator webhook for inbound messages. The reply is
// returned in the response body; the aggregator delivers it.
func HandleSMS(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	var payload incomingSMSPayload
	if err := c.ShouldBind(&payload); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	out := svc.SMS.HandleIncomingSMS(c.Request.Context(), models.IncomingSMS{
		ID:     payload.ID,
		Sender: payload.Sender,
		Body:   payload.Body,
	})
	RespondSuccess(c, out)
}
