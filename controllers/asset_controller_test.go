package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAssetTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Asset{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedAsset(t *testing.T, db *gorm.DB, ownerID, name string) models.Asset {
	t.Helper()

	asset := models.Asset{
		OwnerID:     ownerID,
		Name:        name,
		Description: "Seeded asset",
		Value:       5000,
	}
	if err := db.Create(&asset).Error; err != nil {
		t.Fatalf("Failed to seed asset: %v", err)
	}
	return asset
}

func TestCreateAsset(t *testing.T) {
	db := setupAssetTestDB(t)
	config.SetDB(db)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{
			name: "Valid asset",
			body: map[string]interface{}{
				"owner_id":    "user-a",
				"name":        "Cordless Drill",
				"description": "18V drill with two batteries",
				"value":       12500,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing name",
			body: map[string]interface{}{
				"owner_id": "user-a",
				"value":    12500,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Non-positive value",
			body: map[string]interface{}{
				"owner_id": "user-a",
				"name":     "Cordless Drill",
				"value":    0,
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/assets", CreateAsset)

			raw, _ := json.Marshal(tt.body)
			req, _ := http.NewRequest(http.MethodPost, "/assets", bytes.NewBuffer(raw))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["id"])
				assert.Equal(t, "Cordless Drill", data["name"])
			}
		})
	}
}

func TestListAssets(t *testing.T) {
	db := setupAssetTestDB(t)
	config.SetDB(db)

	seedAsset(t, db, "user-a", "Drill")
	seedAsset(t, db, "user-b", "Ladder")

	router := setupTestRouter()
	router.GET("/assets", ListAssets)

	req, _ := http.NewRequest(http.MethodGet, "/assets", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 2)
}

func TestListOwnerAssets(t *testing.T) {
	db := setupAssetTestDB(t)
	config.SetDB(db)

	seedAsset(t, db, "user-a", "Drill")
	seedAsset(t, db, "user-a", "Tent")
	seedAsset(t, db, "user-b", "Ladder")

	router := setupTestRouter()
	router.GET("/assets/owner/:ownerId", ListOwnerAssets)

	req, _ := http.NewRequest(http.MethodGet, "/assets/owner/user-a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
	for _, entry := range data {
		assert.Equal(t, "user-a", entry.(map[string]interface{})["owner_id"])
	}
}

func TestUpdateAsset(t *testing.T) {
	db := setupAssetTestDB(t)
	config.SetDB(db)

	asset := seedAsset(t, db, "user-a", "Drill")

	router := setupTestRouter()
	router.PUT("/assets/:id", UpdateAsset)

	raw, _ := json.Marshal(map[string]interface{}{
		"name":  "Hammer Drill",
		"value": 15000,
	})
	req, _ := http.NewRequest(http.MethodPut, "/assets/"+asset.ID, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.Asset
	assert.NoError(t, db.Where("id = ?", asset.ID).First(&stored).Error)
	assert.Equal(t, "Hammer Drill", stored.Name)
	assert.Equal(t, int64(15000), stored.Value)
	assert.Equal(t, "Seeded asset", stored.Description, "Omitted fields keep their values")

	req, _ = http.NewRequest(http.MethodPut, "/assets/missing", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAsset(t *testing.T) {
	db := setupAssetTestDB(t)
	config.SetDB(db)

	asset := seedAsset(t, db, "user-a", "Drill")

	router := setupTestRouter()
	router.DELETE("/assets/:id", DeleteAsset)

	req, _ := http.NewRequest(http.MethodDelete, "/assets/"+asset.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Asset{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Deleting again is a 404
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
