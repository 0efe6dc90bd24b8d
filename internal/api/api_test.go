package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/kitshelf/internal/auth"
	"github.com/erazemk/kitshelf/internal/db"
	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/metric"
	"github.com/erazemk/kitshelf/internal/model"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	db    *sql.DB
	blobs *store.BlobStore
	token string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	verifier := auth.Verifier{Secret: testJWTSecret}
	reg := metric.New()

	blobs := store.NewBlobStore(database, "")
	router := NewRouter(Deps{
		DB:    database,
		Blobs: blobs,
		Uploader: &upload.Orchestrator{
			Deriver: &imaging.Deriver{Observer: reg.Imaging()},
			Storage: blobs,
		},
		Verifier: verifier,
		Metrics:  reg,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, db: database, blobs: blobs, token: tokenFor(t, "user-1")}
}

func tokenFor(t *testing.T, owner string) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.Verifier{Secret: testJWTSecret}, owner, owner+"@example.com", 0)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, req *http.Request, into any) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decoding %s %s: %v", req.Method, req.URL, err)
		}
	}
	return resp
}

func kitBody(number string) map[string]any {
	return map[string]any{
		"grade":        "HG",
		"model_number": number,
		"model_name":   "Gundam " + number,
		"owned":        true,
	}
}

func createKit(t *testing.T, s *testServer, body map[string]any) *model.Kit {
	t.Helper()
	req, _ := authRequest("POST", s.URL+"/api/kits", s.token, body)
	var kit model.Kit
	resp := do(t, req, &kit)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return &kit
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, url, token string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "kit.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req, _ := http.NewRequest("PUT", url, &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRequiresToken(t *testing.T) {
	s := setupTestServer(t)

	resp, err := http.Get(s.URL + "/api/kits")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := authRequest("GET", s.URL+"/api/kits", "not-a-jwt", nil)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestKitsAPIFlow(t *testing.T) {
	s := setupTestServer(t)
	kit := createKit(t, s, kitBody("RX-78-2"))

	if kit.ID == "" || kit.OwnerID != "user-1" {
		t.Fatalf("unexpected kit %+v", kit)
	}
	if kit.Brand != model.BrandBandai || kit.ProductLine != model.ProductLineGundam {
		t.Errorf("defaults not applied: %s / %s", kit.Brand, kit.ProductLine)
	}

	// Get.
	req, _ := authRequest("GET", s.URL+"/api/kits/"+kit.ID, s.token, nil)
	var got model.Kit
	if resp := do(t, req, &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got.ModelName != "Gundam RX-78-2" {
		t.Errorf("unexpected model name %q", got.ModelName)
	}

	// Update.
	update := kitBody("RX-78-2")
	update["model_name"] = "Gundam Ver. 2.0"
	update["owned"] = false
	req, _ = authRequest("PUT", s.URL+"/api/kits/"+kit.ID, s.token, update)
	if resp := do(t, req, &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}
	if got.ModelName != "Gundam Ver. 2.0" || got.Owned {
		t.Errorf("update not applied: %+v", got)
	}

	// Delete.
	req, _ = authRequest("DELETE", s.URL+"/api/kits/"+kit.ID, s.token, nil)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	req, _ = authRequest("GET", s.URL+"/api/kits/"+kit.ID, s.token, nil)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateKitValidation(t *testing.T) {
	s := setupTestServer(t)

	req, _ := authRequest("POST", s.URL+"/api/kits", s.token, map[string]any{"model_name": "No number"})
	var body validationResponse
	resp := do(t, req, &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	fields := map[string]bool{}
	for _, f := range body.Fields {
		fields[f.Field] = true
	}
	if !fields["model_number"] || !fields["grade"] {
		t.Errorf("expected model_number and grade errors, got %+v", body.Fields)
	}
}

func TestKitOwnership(t *testing.T) {
	s := setupTestServer(t)
	kit := createKit(t, s, kitBody("MSN-04"))
	other := tokenFor(t, "user-2")

	req, _ := authRequest("GET", s.URL+"/api/kits/"+kit.ID, other, nil)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for another user's kit, got %d", resp.StatusCode)
	}

	req, _ = authRequest("DELETE", s.URL+"/api/kits/"+kit.ID, other, nil)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 on delete, got %d", resp.StatusCode)
	}

	req, _ = authRequest("GET", s.URL+"/api/kits", other, nil)
	var page struct {
		Total int `json:"total"`
	}
	do(t, req, &page)
	if page.Total != 0 {
		t.Errorf("another user must not see kits, got %d", page.Total)
	}
}

func TestListKitsView(t *testing.T) {
	s := setupTestServer(t)
	for i := 1; i <= 25; i++ {
		body := kitBody(fmt.Sprintf("K-%d", i))
		body["owned"] = i%5 != 0
		createKit(t, s, body)
	}

	type listPage struct {
		Items      []model.Kit       `json:"items"`
		Total      int               `json:"total"`
		TotalPages int               `json:"total_pages"`
		Page       int               `json:"page"`
		Numbers    []json.RawMessage `json:"page_numbers"`
	}

	req, _ := authRequest("GET", s.URL+"/api/kits?page=2", s.token, nil)
	var page listPage
	resp := do(t, req, &page)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
	if page.Total != 25 || page.TotalPages != 2 || page.Page != 2 || len(page.Items) != 5 {
		t.Errorf("unexpected page: total=%d pages=%d page=%d items=%d", page.Total, page.TotalPages, page.Page, len(page.Items))
	}

	req, _ = authRequest("GET", s.URL+"/api/kits?partition=wishlist&sort=model_number&order=desc", s.token, nil)
	page = listPage{}
	do(t, req, &page)
	if page.Total != 5 {
		t.Fatalf("expected 5 wishlist kits, got %d", page.Total)
	}
	want := []string{"K-25", "K-20", "K-15", "K-10", "K-5"}
	for i, k := range page.Items {
		if k.ModelNumber != want[i] {
			t.Errorf("item %d = %s, want %s", i, k.ModelNumber, want[i])
		}
	}

	req, _ = authRequest("GET", s.URL+"/api/kits?all=true&q=k-2", s.token, nil)
	page = listPage{}
	do(t, req, &page)
	// K-2 and K-20..K-25.
	if page.Total != 7 || len(page.Items) != 7 || page.TotalPages != 1 {
		t.Errorf("unexpected search result: total=%d items=%d pages=%d", page.Total, len(page.Items), page.TotalPages)
	}
}

func TestImageUploadFlow(t *testing.T) {
	s := setupTestServer(t)
	kit := createKit(t, s, kitBody("RX-0"))

	var up uploadResponse
	resp := do(t, uploadRequest(t, s.URL+"/api/kits/"+kit.ID+"/image", s.token, testPNG(t, 120, 180)), &up)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	img := up.Kit.Image
	prefix := "/media/" + upload.KitPrefix(kit.ID)
	for _, u := range []string{img.Thumbnail, img.Medium, img.Full} {
		if !strings.HasPrefix(u, prefix) {
			t.Errorf("url %q not under %q", u, prefix)
		}
	}
	if up.Savings.OriginalSize == 0 || up.Savings.CompressedSize == 0 {
		t.Errorf("savings not reported: %+v", up.Savings)
	}

	// Media is public, cacheable and conditional.
	resp, err := http.Get(s.URL + img.Thumbnail)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for media, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != imaging.OutputMIME {
		t.Errorf("content type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != upload.CacheControl {
		t.Errorf("cache control = %q", cc)
	}
	etag := resp.Header.Get("ETag")
	if etag != store.ETag(data) {
		t.Errorf("etag = %q, want %q", etag, store.ETag(data))
	}

	req, _ := http.NewRequest("GET", s.URL+img.Thumbnail, nil)
	req.Header.Set("If-None-Match", etag)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}

	// A second upload replaces the first set of blobs.
	var second uploadResponse
	do(t, uploadRequest(t, s.URL+"/api/kits/"+kit.ID+"/image", s.token, testPNG(t, 60, 60)), &second)
	if second.Kit.Image.Medium != img.Medium {
		if old, _ := s.blobs.Get(context.Background(), strings.TrimPrefix(img.Medium, "/media/")); old != nil {
			t.Error("previous image should be deleted after replacement")
		}
	}
	if cur, _ := s.blobs.Get(context.Background(), strings.TrimPrefix(second.Kit.Image.Medium, "/media/")); cur == nil {
		t.Error("current image must survive replacement")
	}

	// Remove the image.
	req, _ = authRequest("DELETE", s.URL+"/api/kits/"+kit.ID+"/image", s.token, nil)
	var cleared model.Kit
	if resp := do(t, req, &cleared); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on image delete, got %d", resp.StatusCode)
	}
	if cleared.HasImage() {
		t.Errorf("image not cleared: %+v", cleared.Image)
	}
	resp, _ = http.Get(s.URL + second.Kit.Image.Thumbnail)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for removed media, got %d", resp.StatusCode)
	}
}

func TestImageUploadInline(t *testing.T) {
	s := setupTestServer(t)
	kit := createKit(t, s, kitBody("ZGMF-X10A"))

	var up uploadResponse
	resp := do(t, uploadRequest(t, s.URL+"/api/kits/"+kit.ID+"/image?inline=true", s.token, testPNG(t, 40, 40)), &up)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(up.Kit.Image.URL, "data:image/jpeg;base64,") {
		t.Errorf("expected data URI, got %.40q", up.Kit.Image.URL)
	}
	if up.Kit.Image.Thumbnail != "" {
		t.Errorf("inline upload must not store sizes, got %q", up.Kit.Image.Thumbnail)
	}
}

func TestImageUploadRejectsNonImage(t *testing.T) {
	s := setupTestServer(t)
	kit := createKit(t, s, kitBody("GN-001"))

	resp := do(t, uploadRequest(t, s.URL+"/api/kits/"+kit.ID+"/image", s.token, []byte("%PDF-1.7 definitely not a photo")), nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	priced := kitBody("A-1")
	priced["purchase_price"] = 25.5
	createKit(t, s, priced)
	wish := kitBody("A-2")
	wish["owned"] = false
	createKit(t, s, wish)

	req, _ := authRequest("GET", s.URL+"/api/stats", s.token, nil)
	var stats statsResponse
	if resp := do(t, req, &stats); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stats.Totals.Total != 2 || stats.Totals.Owned != 1 || stats.Totals.Wishlist != 1 {
		t.Errorf("unexpected totals %+v", stats.Totals)
	}
	if stats.Totals.TotalSpent != 25.5 {
		t.Errorf("total spent = %v", stats.Totals.TotalSpent)
	}
	if stats.Images.TotalKits != 2 || stats.Images.KitsWithImages != 0 {
		t.Errorf("unexpected image stats %+v", stats.Images)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	createKit(t, s, kitBody("RX-93"))

	resp, err := http.Get(s.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), `kitshelf_http_requests_total{method="POST",route="POST /api/kits",status="2xx"} 1`) {
		t.Errorf("request metric missing from:\n%s", body)
	}
}

func TestKitDisplayFields(t *testing.T) {
	s := setupTestServer(t)
	body := kitBody("191")
	body["subline"] = "HGUC"
	body["series"] = "Universal Century"
	kit := createKit(t, s, body)

	req, _ := authRequest("GET", s.URL+"/api/kits/"+kit.ID, s.token, nil)
	var got kitView
	do(t, req, &got)
	if got.DisplayPrefix != "HGUC" || got.DisplayTitle != "HGUC 191 Gundam 191" {
		t.Errorf("display = %q / %q", got.DisplayPrefix, got.DisplayTitle)
	}
	if got.SeriesShort != "UC" {
		t.Errorf("series short = %q", got.SeriesShort)
	}
	if got.DisplayImage != (displayImage{}) {
		t.Errorf("expected no display image, got %+v", got.DisplayImage)
	}

	// A single external URL serves every size.
	body["image"] = map[string]string{"url": "https://img.example.com/rx78.jpg"}
	req, _ = authRequest("PUT", s.URL+"/api/kits/"+kit.ID, s.token, body)
	got = kitView{}
	if resp := do(t, req, &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	want := displayImage{
		Thumbnail: "https://img.example.com/rx78.jpg",
		Medium:    "https://img.example.com/rx78.jpg",
		Full:      "https://img.example.com/rx78.jpg",
	}
	if got.DisplayImage != want {
		t.Errorf("display image = %+v", got.DisplayImage)
	}

	req, _ = authRequest("GET", s.URL+"/api/kits", s.token, nil)
	var page struct {
		Items []kitView `json:"items"`
	}
	do(t, req, &page)
	if len(page.Items) != 1 || page.Items[0].DisplayTitle != "HGUC 191 Gundam 191" {
		t.Errorf("list items missing display fields: %+v", page.Items)
	}
}

func TestImageOfAnotherKitIsProtected(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	victim := createKit(t, s, kitBody("RX-78-2"))
	var up uploadResponse
	do(t, uploadRequest(t, s.URL+"/api/kits/"+victim.ID+"/image", s.token, testPNG(t, 60, 90)), &up)
	victimFull := strings.TrimPrefix(up.Kit.Image.Full, "/media/")

	other := tokenFor(t, "user-2")
	req, _ := authRequest("POST", s.URL+"/api/kits", other, kitBody("MS-06"))
	var own model.Kit
	if resp := do(t, req, &own); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// Pointing a kit at another kit's stored image is rejected.
	body := kitBody("MS-06")
	body["image"] = map[string]string{"full_url": up.Kit.Image.Full}
	req, _ = authRequest("PUT", s.URL+"/api/kits/"+own.ID, other, body)
	var verr validationResponse
	if resp := do(t, req, &verr); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "image" {
		t.Errorf("unexpected fields %+v", verr.Fields)
	}

	req, _ = authRequest("POST", s.URL+"/api/kits", other, body)
	if resp := do(t, req, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on create, got %d", resp.StatusCode)
	}

	// A foreign reference already on record is never deleted on replacement.
	if _, err := store.SetKitImage(ctx, s.db, "user-2", own.ID, model.ImageRef{Full: up.Kit.Image.Full}); err != nil {
		t.Fatal(err)
	}
	resp := do(t, uploadRequest(t, s.URL+"/api/kits/"+own.ID+"/image", other, testPNG(t, 40, 40)), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if blob, _ := s.blobs.Get(ctx, victimFull); blob == nil {
		t.Errorf("blob %s of user-1 was deleted by user-2's upload", victimFull)
	}
}
