package convert

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// cueTimingRE matches an SRT timing line such as
// "00:01:02,500 --> 00:01:05,000" (optionally followed by position hints).
var cueTimingRE = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s+-->\s+\d{2}:\d{2}:\d{2}[,.]\d{3}`)

// cueIndexRE matches the numeric cue counter preceding a timing line.
var cueIndexRE = regexp.MustCompile(`^\d+$`)

// SRT converts SubRip subtitles to Markdown: cue counters and timing lines
// are dropped, and each cue's text becomes one paragraph.
type SRT struct{}

// Convert implements Converter.
func (SRT) Convert(r io.Reader) ([]byte, error) {
	var paragraphs []string

	var cue []string

	flush := func() {
		if len(cue) > 0 {
			paragraphs = append(paragraphs, strings.Join(cue, " "))
			cue = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			flush()
		case cueTimingRE.MatchString(line):
			// A timing line also implies the previous token was this cue's
			// counter; drop it if it slipped into the pending text.
			if len(cue) > 0 && cueIndexRE.MatchString(cue[len(cue)-1]) {
				cue = cue[:len(cue)-1]
			}
		case cueIndexRE.MatchString(line) && len(cue) == 0:
			// Cue counter before the timing line.
		default:
			cue = append(cue, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read srt: %w", core.ErrConverterFailure, err)
	}

	flush()

	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: srt contains no cue text", core.ErrConverterFailure)
	}

	return []byte(strings.Join(paragraphs, "\n\n")), nil
}
