package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ubilite/voice"
)

// HandleVoiceCall answers the new-call webhook with the opening action
// list.
func HandleVoiceCall(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	ev := voice.CallEvent{
		CallSID: c.PostForm("callSid"),
		From:    c.PostForm("from"),
		To:      c.PostForm("to"),
	}
	if ev.CallSID == "" || ev.From == "" {
		RespondError(c, "callSid and from are required", http.StatusBadRequest)
		return
	}
	actions := svc.Voice.HandleIncomingCall(c.Request.Context(), ev)
	RespondSuccess(c, gin.H{"actions": actions})
}

// HandleVoiceDTMF processes keypad digits for an ongoing call.
func HandleVoiceDTMF(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	callSID := c.PostForm("callSid")
	digits := c.PostForm("digits")
	if callSID == "" {
		RespondError(c, "callSid is required", http.StatusBadRequest)
		return
	}
	actions := svc.Voice.HandleDTMF(c.Request.Context(), callSID, digits)
	RespondSuccess(c, gin.H{"actions": actions})
}

// HandleVoiceSpeech processes a speech transcript with its recognition
// confidence.
func HandleVoiceSpeech(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	callSID := c.PostForm("callSid")
	transcript := c.PostForm("transcript")
	if callSID == "" {
		RespondError(c, "callSid is required", http.StatusBadRequest)
		return
	}
	confidence, err := strconv.ParseFloat(c.DefaultPostForm("confidence", "1"), 64)
	if err != nil {
		RespondError(c, "invalid confidence", http.StatusBadRequest)
		return
	}
	actions := svc.Voice.HandleSpeech(c.Request.Context(), callSID, transcript, confidence)
	RespondSuccess(c, gin.H{"actions": actions})
}
