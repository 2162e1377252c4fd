package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupConversationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// conversationRequestBody builds a valid create request
func conversationRequestBody(itemID, ownerID, borrowerID string) map[string]interface{} {
	return map[string]interface{}{
		"item_id":       itemID,
		"item_name":     "Cordless Drill",
		"owner_id":      ownerID,
		"owner_name":    "Olivia Owner",
		"borrower_id":   borrowerID,
		"borrower_name": "Bram Borrower",
	}
}

// postConversation sends a create-or-get request and returns the parsed response
func postConversation(t *testing.T, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()

	router := setupTestRouter()
	router.POST("/conversations", CreateOrGetConversation)

	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, "/conversations", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response should be valid JSON: %v", err)
	}
	return w.Code, response
}

func TestCreateOrGetConversationIsIdempotent(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	body := conversationRequestBody("item-1", "user-a", "user-b")

	code, first := postConversation(t, body)
	assert.Equal(t, http.StatusCreated, code)
	firstID := first["data"].(map[string]interface{})["id"].(string)
	assert.NotEmpty(t, firstID)

	code, second := postConversation(t, body)
	assert.Equal(t, http.StatusOK, code, "Second call should find the existing thread")
	assert.Equal(t, firstID, second["data"].(map[string]interface{})["id"])

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count, "Exactly one conversation should exist")
}

func TestCreateOrGetConversationMatchesSwappedRoles(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	code, first := postConversation(t, conversationRequestBody("item-1", "user-a", "user-b"))
	assert.Equal(t, http.StatusCreated, code)
	firstID := first["data"].(map[string]interface{})["id"].(string)

	// The same two parties with roles reversed still refer to the same thread
	code, second := postConversation(t, conversationRequestBody("item-1", "user-b", "user-a"))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, firstID, second["data"].(map[string]interface{})["id"])

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrGetConversationDistinctPairs(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	code, _ := postConversation(t, conversationRequestBody("item-1", "user-a", "user-b"))
	assert.Equal(t, http.StatusCreated, code)

	// A different item or a different party is a new thread
	code, _ = postConversation(t, conversationRequestBody("item-2", "user-a", "user-b"))
	assert.Equal(t, http.StatusCreated, code)
	code, _ = postConversation(t, conversationRequestBody("item-1", "user-a", "user-c"))
	assert.Equal(t, http.StatusCreated, code)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestCreateOrGetConversationUniqueKeyFallback(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	// A row that holds the pair key without matching the role-based lookup,
	// the state a lost create race leaves behind
	existing := models.Conversation{
		ItemID:       "item-1",
		ItemName:     "Cordless Drill",
		OwnerID:      "someone-else",
		OwnerName:    "Someone Else",
		BorrowerID:   "another-user",
		BorrowerName: "Another User",
		PairKey:      models.ConversationPairKey("item-1", "user-a", "user-b"),
		Status:       models.ConversationActive,
	}
	assert.NoError(t, db.Create(&existing).Error)

	code, response := postConversation(t, conversationRequestBody("item-1", "user-a", "user-b"))
	assert.Equal(t, http.StatusOK, code, "Insert should fall back to the existing row")
	assert.Equal(t, existing.ID, response["data"].(map[string]interface{})["id"])

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrGetConversationValidation(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	body := conversationRequestBody("item-1", "user-a", "user-b")
	delete(body, "owner_id")

	code, response := postConversation(t, body)
	assert.Equal(t, http.StatusBadRequest, code)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
}

func TestListUserConversations(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	base := time.Now().Add(-time.Hour)
	seed := []models.Conversation{
		{ItemID: "item-1", ItemName: "Drill", OwnerID: "user-a", OwnerName: "A", BorrowerID: "user-b", BorrowerName: "B", Status: models.ConversationActive, CreatedAt: base, UpdatedAt: base},
		{ItemID: "item-2", ItemName: "Ladder", OwnerID: "user-c", OwnerName: "C", BorrowerID: "user-a", BorrowerName: "A", Status: models.ConversationActive, CreatedAt: base, UpdatedAt: base.Add(30 * time.Minute)},
		{ItemID: "item-3", ItemName: "Tent", OwnerID: "user-c", OwnerName: "C", BorrowerID: "user-d", BorrowerName: "D", Status: models.ConversationActive, CreatedAt: base, UpdatedAt: base.Add(10 * time.Minute)},
	}
	for i := range seed {
		assert.NoError(t, db.Create(&seed[i]).Error)
	}

	router := setupTestRouter()
	router.GET("/conversations/user/:userId", ListUserConversations)

	req, _ := http.NewRequest(http.MethodGet, "/conversations/user/user-a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2, "Only user-a's threads should be listed")

	// Most recently active first
	assert.Equal(t, "item-2", data[0].(map[string]interface{})["item_id"])
	assert.Equal(t, "item-1", data[1].(map[string]interface{})["item_id"])
}

func TestGetConversation(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	conversation := models.Conversation{
		ItemID: "item-1", ItemName: "Drill",
		OwnerID: "user-a", OwnerName: "A",
		BorrowerID: "user-b", BorrowerName: "B",
		Status: models.ConversationActive,
	}
	assert.NoError(t, db.Create(&conversation).Error)

	router := setupTestRouter()
	router.GET("/conversations/:id", GetConversation)

	req, _ := http.NewRequest(http.MethodGet, "/conversations/"+conversation.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, conversation.ID, response["data"].(map[string]interface{})["id"])

	req, _ = http.NewRequest(http.MethodGet, "/conversations/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "CONVERSATION_NOT_FOUND", errorData["code"])
}

func TestUpdateConversationStatus(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	tests := []struct {
		name           string
		initialStatus  string
		newStatus      string
		expectedStatus int
		expectedError  string
	}{
		{"Active to completed", models.ConversationActive, models.ConversationCompleted, http.StatusOK, ""},
		{"Active to cancelled", models.ConversationActive, models.ConversationCancelled, http.StatusOK, ""},
		{"Completed to archived", models.ConversationCompleted, models.ConversationArchived, http.StatusOK, ""},
		{"Same status is a no-op", models.ConversationActive, models.ConversationActive, http.StatusOK, ""},
		{"Unknown status", models.ConversationActive, "paused", http.StatusBadRequest, "INVALID_STATUS"},
		{"Out of terminal state", models.ConversationCancelled, models.ConversationActive, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
		{"Completed back to active", models.ConversationCompleted, models.ConversationActive, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conversation := models.Conversation{
				ItemID: fmt.Sprintf("item-%d", i), ItemName: "Drill",
				OwnerID: "user-a", OwnerName: "A",
				BorrowerID: "user-b", BorrowerName: "B",
				Status: tt.initialStatus,
			}
			assert.NoError(t, db.Create(&conversation).Error)

			router := setupTestRouter()
			router.PUT("/conversations/:id/status", UpdateConversationStatus)

			body, _ := json.Marshal(map[string]interface{}{"status": tt.newStatus})
			req, _ := http.NewRequest(http.MethodPut, "/conversations/"+conversation.ID+"/status", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			var stored models.Conversation
			assert.NoError(t, db.Where("id = ?", conversation.ID).First(&stored).Error)

			if tt.expectedError != "" {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
				assert.Equal(t, tt.initialStatus, stored.Status, "Rejected transitions must not change the row")
			} else {
				assert.Equal(t, tt.newStatus, stored.Status)
				data := response["data"].(map[string]interface{})
				assert.Equal(t, tt.newStatus, data["status"])
			}
		})
	}
}

func TestUpdateConversationStatusNotFound(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	router := setupTestRouter()
	router.PUT("/conversations/:id/status", UpdateConversationStatus)

	body, _ := json.Marshal(map[string]interface{}{"status": models.ConversationCompleted})
	req, _ := http.NewRequest(http.MethodPut, "/conversations/missing/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindConversation(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	conversation := models.Conversation{
		ItemID: "item-1", ItemName: "Drill",
		OwnerID: "user-a", OwnerName: "A",
		BorrowerID: "user-b", BorrowerName: "B",
		Status: models.ConversationActive,
	}
	assert.NoError(t, db.Create(&conversation).Error)

	router := setupTestRouter()
	router.GET("/conversations/find", FindConversation)

	tests := []struct {
		name       string
		query      string
		expectHit  bool
		expectCode int
	}{
		{"Match by borrower role", "itemId=item-1&borrowerId=user-b", true, http.StatusOK},
		// The supplied ID matches either role, so the owner's ID finds the thread too
		{"Match by owner role", "itemId=item-1&borrowerId=user-a", true, http.StatusOK},
		{"No thread for item", "itemId=item-9&borrowerId=user-b", false, http.StatusOK},
		{"No thread for user", "itemId=item-1&borrowerId=user-z", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/conversations/find?"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectCode, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.True(t, response["success"].(bool))

			if tt.expectHit {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, conversation.ID, data["id"])
			} else {
				assert.Nil(t, response["data"], "Miss should return null data, not 404")
			}
		})
	}
}

func TestFindConversationMissingParams(t *testing.T) {
	db := setupConversationTestDB(t)
	config.SetDB(db)

	router := setupTestRouter()
	router.GET("/conversations/find", FindConversation)

	req, _ := http.NewRequest(http.MethodGet, "/conversations/find?itemId=item-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
