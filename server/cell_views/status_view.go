package cell_views

import (
	"html/template"

	"pathviz/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatusView shows the visited count, the path length and a message for the current search.
type StatusView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatusView(
	done <-chan struct{},
	_ Frame,
	frames <-chan Frame,
) (sv *StatusView) {
	sv = &StatusView{id: "status"}
	sv.updates = channerics.Convert(done, frames, sv.onUpdate)
	return
}

func (sv *StatusView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func (sv *StatusView) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	fields := []struct{ suffix, value string }{
		{"visited", frame.Status.Visited},
		{"path", frame.Status.PathLength},
		{"message", frame.Status.Message},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: sv.id + "-" + field.suffix,
			Ops:   []fastview.Op{{Key: "textContent", Value: field.value}},
		})
	}
	return
}

func (sv *StatusView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div class="status">
			<span>Visited: <span id="` + sv.id + `-visited">{{ .Status.Visited }}</span></span>
			<span>Path length: <span id="` + sv.id + `-path">{{ .Status.PathLength }}</span></span>
			<span id="` + sv.id + `-message">{{ .Status.Message }}</span>
		</div>
		{{ end }}`)
	return
}
