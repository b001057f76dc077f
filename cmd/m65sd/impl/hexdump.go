// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package impl

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bytesPerLine = 16

type styles struct {
	offset lipgloss.Style
	zero   lipgloss.Style
	data   lipgloss.Style
	text   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		offset: r.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4)),
		zero:   r.NewStyle().Faint(true),
		data:   r.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		text:   r.NewStyle().Foreground(lipgloss.ANSIColor(6)),
	}
}

// hexdump writes b, which starts at byte address base, sixteen bytes a line.
// Colour is only used when w is a terminal.
func hexdump(w io.Writer, base uint64, b []byte) error {
	st := newStyles(w)
	for off := 0; off < len(b); off += bytesPerLine {
		line := b[off:min(off+bytesPerLine, len(b))]
		var hex, text strings.Builder
		for i := 0; i < bytesPerLine; i++ {
			if i == bytesPerLine/2 {
				hex.WriteByte(' ')
			}
			if i >= len(line) {
				hex.WriteString("   ")
				continue
			}
			s := st.data
			if line[i] == 0 {
				s = st.zero
			}
			hex.WriteString(s.Render(fmt.Sprintf("%02x", line[i])))
			hex.WriteByte(' ')
		}
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			text.WriteByte(c)
		}
		if _, err := fmt.Fprintf(w, "%s  %s |%s|\n",
			st.offset.Render(fmt.Sprintf("%08x", base+uint64(off))),
			hex.String(),
			st.text.Render(text.String())); err != nil {
			return err
		}
	}
	return nil
}
