package cell_views

import (
	"html/template"

	"pathviz/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// GridView draws the grid as a table of cells whose class shows the node kind and the
// search overlay. Mouse events on the cells are sent to the server as commands.
type GridView struct {
	id      string
	classes map[string]string // last class sent per element id
	updates <-chan []fastview.EleUpdate
}

func NewGridView(
	done <-chan struct{},
	initial Frame,
	frames <-chan Frame,
) (gv *GridView) {
	gv = &GridView{
		id:      "grid",
		classes: map[string]string{},
	}
	for _, cell := range initial.Cells {
		gv.classes[cell.EleId()] = cell.Class
	}
	gv.updates = channerics.Convert(done, frames, gv.onUpdate)
	return
}

func (gv *GridView) Updates() <-chan []fastview.EleUpdate {
	return gv.updates
}

// onUpdate returns the class changes needed for the page to reflect the frame.
// Only cells whose class differs from the last one sent are updated, so a full frame
// after a replay clears exactly the overlaid cells.
func (gv *GridView) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, cell := range frame.Cells {
		id := cell.EleId()
		if gv.classes[id] == cell.Class {
			continue
		}
		gv.classes[id] = cell.Class
		ops = append(ops, fastview.EleUpdate{
			EleId: id,
			Ops:   []fastview.Op{{Key: "class", Value: cell.Class}},
		})
	}
	return
}

// Parse defines the grid table, rendered from a Page.
func (gv *GridView) Parse(
	t *template.Template,
) (name string, err error) {
	name = gv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<table id="` + gv.id + `" onmouseleave="send('mouseup')">
			<tbody>
			{{ range $row := .Rows }}
				<tr>
				{{ range $cell := $row }}
					<td id="node-{{ $cell.Row }}-{{ $cell.Col }}"
						class="{{ $cell.Class }}"
						onmousedown="send('mousedown', {{ $cell.Row }}, {{ $cell.Col }})"
						onmouseenter="send('mouseenter', {{ $cell.Row }}, {{ $cell.Col }})"
						onmouseup="send('mouseup')"></td>
				{{ end }}
				</tr>
			{{ end }}
			</tbody>
		</table>
		{{ end }}`)
	return
}
