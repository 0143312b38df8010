package i18n

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondWithError answers with {"error": "..."} and the status carried by err, or 500
func RespondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if ec := AsErrorWithCode(err); ec != nil {
		c.JSON(int(ec.Code), gin.H{"error": TranslateMessage(c, ec.MessageID, ec.Data)})
		return
	}

	// Raw errors may carry driver details; never echo them.
	c.JSON(http.StatusInternalServerError, gin.H{"error": TranslateMessage(c, ErrInternalServer.MessageID, nil)})
}

// SuccessResponse is a fluent builder for success envelopes
type SuccessResponse struct {
	StatusCode int
	MsgID      string
	Payload    any
}

// WithPayload sets the payload for the response. Maps are merged into the top level; anything else goes under "data".
func (r *SuccessResponse) WithPayload(payload any) *SuccessResponse {
	r.Payload = payload
	return r
}

// Send sends the response to the client
func (r *SuccessResponse) Send(c *gin.Context) {
	response := gin.H{"message": TranslateMessage(c, r.MsgID, nil)}

	switch p := r.Payload.(type) {
	case nil:
	case gin.H:
		for k, v := range p {
			response[k] = v
		}
	case map[string]any:
		for k, v := range p {
			response[k] = v
		}
	default:
		response["data"] = p
	}

	c.JSON(r.StatusCode, response)
}

// Success creates a new success response with status code 200
func Success(msgID string) *SuccessResponse {
	return &SuccessResponse{StatusCode: http.StatusOK, MsgID: msgID}
}

// Created creates a new success response with status code 201
func Created(msgID string) *SuccessResponse {
	return &SuccessResponse{StatusCode: http.StatusCreated, MsgID: msgID}
}
