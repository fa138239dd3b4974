package alert

import (
	"context"
	"log"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

// playTimeout bounds each player invocation; a wedged audio stack must never
// stall a pipeline pass.
const playTimeout = 5 * time.Second

// ExecNotifier plays cues by running an operator-configured command with the
// sound name appended, and logs badge updates. Playback failures are logged
// and swallowed.
type ExecNotifier struct {
	Command string
}

func NewExecNotifier(command string) *ExecNotifier {
	return &ExecNotifier{Command: command}
}

func (n *ExecNotifier) Play(sound Sound) {
	if n.Command == "" {
		log.Printf("alert sound=%s (no player configured)", sound)
		return
	}
	words, err := shellquote.Split(n.Command)
	if err != nil || len(words) == 0 {
		log.Printf("alert player command unusable: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()
	args := append(words[1:], string(sound))
	if err := exec.CommandContext(ctx, words[0], args...).Run(); err != nil {
		log.Printf("alert player failed sound=%s err=%v", sound, err)
	}
}

func (n *ExecNotifier) Badge(counts view.Counts) {
	log.Printf("badge sending=%d upcoming=%d total=%d", counts.Sending, counts.Upcoming, counts.Total)
}
