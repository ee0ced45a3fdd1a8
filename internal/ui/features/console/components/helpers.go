// Package components renders the console views as templ components.
package components

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/queryconsole/internal/console"
)

// Element ids patched by the SSE handlers.
const (
	PanelID  = "console-panel"
	ToastsID = "console-toasts"
)

// DatastarScript is the client runtime the SSE handlers talk to.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

const shiftEnterSubmit = `evt.shiftKey && evt.key === 'Enter' && (evt.preventDefault(), @post('/api/console/submit'))`

const selectUnit = `@post('/api/console/unit/' + encodeURIComponent(evt.target.value))`

func signalsJSON(query string) string {
	b, _ := json.Marshal(map[string]string{"query": query})
	return string(b)
}

func post(path string) string {
	return "@post('" + path + "')"
}

func selectEntity(index int) string {
	return post("/api/console/entity/" + strconv.Itoa(index))
}

func dismiss(id uint64) string {
	return post("/api/console/notices/" + strconv.FormatUint(id, 10) + "/dismiss")
}

// useQuery copies a named query into the editor signal.
func useQuery(query string) string {
	b, _ := json.Marshal(query)
	return "$query = " + string(b)
}

func entityClass(selected bool) string {
	if selected {
		return "entity selected"
	}
	return "entity"
}

func toastClass(kind console.NoticeKind) string {
	return "toast " + string(kind)
}

func pageLabel(snap console.Snapshot) string {
	return fmt.Sprintf("Page %d of %d (%d elements)", snap.Page, snap.PageCount, snap.Total)
}

func pageTitle(title string) string {
	return title + " - queryconsole"
}
