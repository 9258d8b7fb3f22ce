package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type dedupRig struct {
	seen     map[[2]int64]bool
	seenErr  error
	recorded [][2]int64
}

func newDedupRig() *dedupRig {
	return &dedupRig{seen: map[[2]int64]bool{}}
}

func (d *dedupRig) seenFn(ctx context.Context, groupID, updateID int64) (bool, error) {
	if d.seenErr != nil {
		return false, d.seenErr
	}
	return d.seen[[2]int64{groupID, updateID}], nil
}

func (d *dedupRig) recordFn(ctx context.Context, groupID, updateID int64) error {
	d.recorded = append(d.recorded, [2]int64{groupID, updateID})
	return nil
}

func dedupRouter(d *dedupRig, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(DeliveryDedup(d.seenFn, d.recordFn))
	r.POST("/webhook", handler)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestDeliveryDedup_FirstDeliveryPassesAndIsRecorded(t *testing.T) {
	d := newDedupRig()
	var sawBody string
	r := dedupRouter(d, func(c *gin.Context) {
		// The handler must still see the full body after the dedup peek.
		b, _ := io.ReadAll(c.Request.Body)
		sawBody = string(b)
		c.Status(http.StatusOK)
	})

	body := `{"update_id": 9001, "group_id": -100, "text": "hello"}`
	w := postJSON(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("first delivery -> %d", w.Code)
	}
	if sawBody != body {
		t.Fatalf("handler saw truncated body: %q", sawBody)
	}
	if len(d.recorded) != 1 || d.recorded[0] != [2]int64{-100, 9001} {
		t.Fatalf("recorded = %v", d.recorded)
	}
}

func TestDeliveryDedup_RetransmissionDropped(t *testing.T) {
	d := newDedupRig()
	d.seen[[2]int64{-100, 9001}] = true
	handled := false
	r := dedupRouter(d, func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	w := postJSON(r, `{"update_id": 9001, "group_id": -100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate delivery -> %d; retries must be acknowledged", w.Code)
	}
	if handled {
		t.Fatal("handler ran for a duplicate delivery")
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "duplicate" {
		t.Fatalf("body = %v", resp)
	}
	if len(d.recorded) != 0 {
		t.Fatalf("duplicate was re-recorded: %v", d.recorded)
	}
}

func TestDeliveryDedup_FailedHandlerStaysRetryable(t *testing.T) {
	d := newDedupRig()
	r := dedupRouter(d, func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := postJSON(r, `{"update_id": 5, "group_id": -1}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("handler status = %d", w.Code)
	}
	if len(d.recorded) != 0 {
		t.Fatalf("failed delivery was recorded: %v", d.recorded)
	}
}

func TestDeliveryDedup_LookupErrorFailsOpen(t *testing.T) {
	d := newDedupRig()
	d.seenErr = errors.New("db down")
	handled := false
	r := dedupRouter(d, func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	w := postJSON(r, `{"update_id": 5, "group_id": -1}`)
	if w.Code != http.StatusOK || !handled {
		t.Fatalf("lookup failure must not block delivery: code=%d handled=%v", w.Code, handled)
	}
}

func TestDeliveryDedup_NonProbeBodiesPassThrough(t *testing.T) {
	d := newDedupRig()
	handled := false
	r := dedupRouter(d, func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	// Not JSON at all.
	if w := postJSON(r, "plain text"); w.Code != http.StatusOK || !handled {
		t.Fatalf("non-JSON body blocked: %d", w.Code)
	}
	// JSON without an update id.
	handled = false
	if w := postJSON(r, `{"group_id": -1}`); w.Code != http.StatusOK || !handled {
		t.Fatalf("id-less body blocked: %d", w.Code)
	}
	if len(d.recorded) != 0 {
		t.Fatalf("unidentifiable deliveries recorded: %v", d.recorded)
	}
}
