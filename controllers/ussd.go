package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ubilite/ussd"
)

// HandleUSSD accepts the aggregator's form post and returns the plain-text
// menu body. continueSession maps onto the "CON "/"END " prefix the
// gateway expects.
func HandleUSSD(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	req := ussd.Request{
		SessionID:   c.PostForm("sessionId"),
		PhoneNumber: c.PostForm("phoneNumber"),
		Input:       c.PostForm("text"),
		ServiceCode: c.PostForm("serviceCode"),
		Carrier:     c.PostForm("networkCode"),
	}
	if req.SessionID == "" || req.PhoneNumber == "" {
		RespondError(c, "sessionId and phoneNumber are required", http.StatusBadRequest)
		return
	}

	resp := svc.USSD.HandleRequest(c.Request.Context(), req)

	prefix := "END "
	if resp.ContinueSession {
		prefix = "CON "
	}
	c.String(http.StatusOK, prefix+resp.Message)
}
