package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cello/internal/core"
	"cello/internal/projection"
	"cello/internal/sim"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCanvas struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeCanvas) Spawn(_ context.Context, name string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.names = append(f.names, name)
	return uuid.New(), nil
}

func (f *fakeCanvas) Stats() sim.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sim.Stats{Spawned: int64(len(f.names)), Cells: int64(len(f.names)), Ticks: 9}
}

func (f *fakeCanvas) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Canvas", Params: []core.Parameter{core.StringParam("state", "State", "active")}},
	}}
}

type fixedFrames struct{ frame projection.Frame }

func (f fixedFrames) Frame() projection.Frame { return f.frame }

func testFrame() projection.Frame {
	return projection.Frame{
		Seq:    3,
		Width:  2000,
		Height: 2000,
		Cells: []sim.CellInfo{{
			ID:            uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			Name:          "Booboo",
			Position:      core.Vec{X: 1000, Y: 1000},
			DirectionRads: 0.5,
			Size:          sim.InitSize,
		}},
	}
}

func newTestServer(t *testing.T, canvas Canvas) *httptest.Server {
	t.Helper()
	srv, err := NewServer(canvas, fixedFrames{testFrame()}, 10*time.Millisecond, 400,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAPI(t *testing.T) {
	Convey("Given a web server over a canvas", t, func() {
		canvas := &fakeCanvas{}
		ts := newTestServer(t, canvas)

		Convey("The index page is sized to the view width", func() {
			resp, err := http.Get(ts.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(body), ShouldContainSubstring, "Cell-O!")
			So(string(body), ShouldContainSubstring, `width="400"`)
		})

		Convey("The state endpoint returns the latest frame", func() {
			resp, err := http.Get(ts.URL + "/api/state")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var frame FrameDTO
			So(json.NewDecoder(resp.Body).Decode(&frame), ShouldBeNil)
			So(frame.Seq, ShouldEqual, 3)
			So(len(frame.Cells), ShouldEqual, 1)
			So(frame.Cells[0].Name, ShouldEqual, "Booboo")
			So(frame.Cells[0].Radius, ShouldAlmostEqual, 15.0, 0.01)
		})

		Convey("A spawn request reaches the canvas", func() {
			resp, err := http.Post(ts.URL+"/api/spawn", "application/json", strings.NewReader(`{"name":"Ada"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var out SpawnResponse
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out.Name, ShouldEqual, "Ada")
			So(canvas.names, ShouldResemble, []string{"Ada"})

			Convey("And is counted in the stats", func() {
				resp, err := http.Get(ts.URL + "/api/stats")
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				var st StatsDTO
				So(json.NewDecoder(resp.Body).Decode(&st), ShouldBeNil)
				So(st.Spawned, ShouldEqual, 1)
				So(st.Ticks, ShouldEqual, 9)
				So(st.Parameters[0].Key, ShouldEqual, "state")
			})
		})

		Convey("A spawn without a name is rejected", func() {
			resp, err := http.Post(ts.URL+"/api/spawn", "application/json", bytes.NewBufferString(`{"name":"  "}`))
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Spawning is a POST only route", func() {
			resp, err := http.Get(ts.URL + "/api/spawn")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestSpawnErrorStatus(t *testing.T) {
	Convey("Canvas errors map onto HTTP statuses", t, func() {
		So(spawnStatus(fmt.Errorf("spawn: %w", sim.ErrAllocation)), ShouldEqual, http.StatusConflict)
		So(spawnStatus(fmt.Errorf("spawn: %w", sim.ErrInvalidState)), ShouldEqual, http.StatusServiceUnavailable)
		So(spawnStatus(context.DeadlineExceeded), ShouldEqual, http.StatusGatewayTimeout)

		canvas := &fakeCanvas{err: fmt.Errorf("spawn: %w", sim.ErrAllocation)}
		ts := newTestServer(t, canvas)
		resp, err := http.Post(ts.URL+"/api/spawn", "application/json", strings.NewReader(`{"name":"Ada"}`))
		So(err, ShouldBeNil)
		resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusConflict)
	})
}

func TestWebsocketPublishesFrames(t *testing.T) {
	Convey("When a browser connects to the websocket", t, func() {
		ts := newTestServer(t, &fakeCanvas{})
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("It receives the current frame straight away", func() {
			So(conn.SetReadDeadline(time.Now().Add(2*time.Second)), ShouldBeNil)
			var frame FrameDTO
			So(conn.ReadJSON(&frame), ShouldBeNil)
			So(frame.Seq, ShouldEqual, 3)
			So(frame.Cells[0].ID, ShouldEqual, "00000000-0000-0000-0000-000000000001")
		})
	})
}
