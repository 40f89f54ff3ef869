// Notification API tests in Waitingway.

package notification

import (
	"Waitingway/internal/envelope"
	"Waitingway/internal/test"
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper wiring both notification kinds on a mock router.
func newTestRouter(t *testing.T, messenger *fakeMessenger) *gin.Engine {
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1, 2}}}
	router := test.MockRouter()
	auth := test.MockAuthMiddleware(logger)
	NotificationHandlers(router, "/api/queue/login/notifications", newLoginService(t, messenger, connections), auth, logger)
	NotificationHandlers(router, "/api/queue/duty/notifications", newDutyService(t, messenger, connections), auth, logger)
	return router
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func headers(token *envelope.Token) map[string]string {
	h := map[string]string{test.AccountHeader: account.String(), "Content-Type": "application/json"}
	if token != nil {
		h[envelope.NonceHeader] = token.Nonce
		h[envelope.DataHeader] = token.Data
	}
	return h
}

func TestLoginNotificationAPI(t *testing.T) {
	messenger := newFakeMessenger()
	router := newTestRouter(t, messenger)
	path := "/api/queue/login/notifications"

	// Below threshold
	w := test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodPost, Path: path, Body: jsonBody(t, loginCreate(3)),
		WantResponse: []int{http.StatusNoContent}, Headers: headers(nil),
	})
	assert.Empty(t, w.Header().Get(envelope.NonceHeader))

	w = test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodPost, Path: path, Body: jsonBody(t, loginCreate(800)),
		WantResponse: []int{http.StatusCreated}, Headers: headers(nil),
	})
	token := envelope.FromHeader(w.Header())
	require.NotEmpty(t, token.Nonce)
	require.NotEmpty(t, token.Data)

	test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodPatch, Path: path, Body: jsonBody(t, gin.H{"position": 700}),
		WantResponse: []int{http.StatusNoContent}, Headers: headers(&token),
	})
	assert.Len(t, messenger.edited, 2)

	test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodDelete, Path: path, Body: jsonBody(t, gin.H{"successful": true, "queue_start_size": 800}),
		WantResponse: []int{http.StatusNoContent}, Headers: headers(&token),
	})
	assert.Len(t, messenger.deleted, 2)
}

func TestNotificationAPIRejectsBadRequests(t *testing.T) {
	messenger := newFakeMessenger()
	router := newTestRouter(t, messenger)
	path := "/api/queue/login/notifications"

	tests := map[string]test.RequestAPITest{
		"missing token": {
			Method: http.MethodPatch, Path: path, Body: jsonBody(t, gin.H{"position": 1}),
			WantResponse: []int{http.StatusBadRequest}, Headers: headers(nil),
		},
		"garbage token": {
			Method: http.MethodDelete, Path: path, Body: jsonBody(t, gin.H{}),
			WantResponse: []int{http.StatusBadRequest}, Headers: headers(&envelope.Token{Nonce: "not base64!", Data: "x"}),
		},
		"blank character name": {
			Method: http.MethodPost, Path: path, Body: jsonBody(t, gin.H{"character_name": "   ", "home_world_id": 73, "world_id": 73, "position": 900}),
			WantResponse: []int{http.StatusBadRequest}, Headers: headers(nil),
		},
		"malformed body": {
			Method: http.MethodPost, Path: path, Body: bytes.NewReader([]byte("{")),
			WantResponse: []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, Headers: headers(nil),
		},
		"duty update without data": {
			Method: http.MethodPatch, Path: "/api/queue/duty/notifications", Body: jsonBody(t, gin.H{}),
			WantResponse: []int{http.StatusBadRequest}, Headers: headers(nil),
		},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			test.ExecuteAPITest(logger, t, router, req)
		})
	}
	assert.Empty(t, messenger.created)
	assert.Empty(t, messenger.edited)
}

func TestNotificationAPIDispatchFailure(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.fail[2] = true
	router := newTestRouter(t, messenger)

	w := test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodPost, Path: "/api/queue/login/notifications", Body: jsonBody(t, loginCreate(800)),
		WantResponse: []int{http.StatusInternalServerError}, Headers: headers(nil),
	})
	assert.Empty(t, w.Header().Get(envelope.DataHeader))
}

func TestDutyNotificationAPI(t *testing.T) {
	messenger := newFakeMessenger()
	router := newTestRouter(t, messenger)
	path := "/api/queue/duty/notifications"

	w := test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         path,
		Body:         jsonBody(t, gin.H{"character_name": "Alisaie", "home_world_id": 79, "queued_job": 35, "queued_content": []int{4, 5}, "update": gin.H{"timestamp": "2024-05-01T10:00:00Z"}}),
		WantResponse: []int{http.StatusCreated},
		Headers:      headers(nil),
	})
	token := envelope.FromHeader(w.Header())

	test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method: http.MethodPatch, Path: path, Body: jsonBody(t, gin.H{"timestamp": "2024-05-01T10:04:00Z", "resulting_content": 4}),
		WantResponse: []int{http.StatusNoContent}, Headers: headers(&token),
	})
	assert.ElementsMatch(t, []uint64{100, 200}, messenger.sent)
}
