package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"docman/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentOwnershipScoping(t *testing.T) {
	r, a, _ := setupTestApp(t)
	alice := createTestUser(t, "alice@b.com", "alice", models.RoleEditor)
	bob := createTestUser(t, "bob@b.com", "bob", models.RoleEditor)
	admin := createTestUser(t, "root@b.com", "root", models.RoleAdmin)

	require.NoError(t, db.Create(&models.Document{Title: "alice doc", OwnerID: alice.ID}).Error)
	require.NoError(t, db.Create(&models.Document{Title: "bob doc", OwnerID: bob.ID}).Error)

	list := func(u *models.User) []models.Document {
		access, _, err := a.issuer.IssueAccess(u.ID, string(u.Role))
		require.NoError(t, err)
		rec := performRequest(r, http.MethodGet, "/docs", nil, access, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var docs []models.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		return docs
	}

	assert.Len(t, list(alice), 1)
	assert.Len(t, list(bob), 1)
	assert.Len(t, list(admin), 2) // admins see everything
}

func TestDeleteDocumentRequiresAdmin(t *testing.T) {
	r, a, _ := setupTestApp(t)
	editor := createTestUser(t, "e@b.com", "ed", models.RoleEditor)
	admin := createTestUser(t, "root@b.com", "root", models.RoleAdmin)

	doc := models.Document{Title: "target", OwnerID: editor.ID}
	require.NoError(t, db.Create(&doc).Error)
	path := fmt.Sprintf("/docs/%d", doc.ID)

	editorToken, _, err := a.issuer.IssueAccess(editor.ID, string(editor.Role))
	require.NoError(t, err)
	rec := performRequest(r, http.MethodDelete, path, nil, editorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken, _, err := a.issuer.IssueAccess(admin.ID, string(admin.Role))
	require.NoError(t, err)
	rec = performRequest(r, http.MethodDelete, path, nil, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(r, http.MethodDelete, path, nil, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStats(t *testing.T) {
	r, a, _ := setupTestApp(t)
	super := createTestUser(t, "s@b.com", "super", models.RoleSuperadmin)
	createTestUser(t, "v@b.com", "view", models.RoleViewer)

	access, _, err := a.issuer.IssueAccess(super.ID, string(super.Role))
	require.NoError(t, err)

	rec := performRequest(r, http.MethodGet, "/admin/stats", nil, access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats["users"])
}

func TestMeStripsSecrets(t *testing.T) {
	r, _, _ := setupTestApp(t)
	createTestUser(t, "a@b.com", "ada", models.RoleViewer)

	token, _ := loginAs(t, r, "a@b.com")
	rec := performRequest(r, http.MethodGet, "/me", nil, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")
	assert.NotContains(t, rec.Body.String(), "Hash")
	assert.Contains(t, rec.Body.String(), "ada")
}
