package sim

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/billie-coop/labsync/internal/config"
)

// Report renders s as markdown, suitable for glamour
func Report(s Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", shortID(s.RunID))
	fmt.Fprintf(&b, "**%s** workload, **%s** policy admission, queue capacity **%d**, ran for **%s**.\n\n",
		s.Workload, s.Mode, s.Capacity, s.Elapsed.Round(time.Millisecond))

	b.WriteString("## Orders\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Produced | %d |\n", s.Produced)
	fmt.Fprintf(&b, "| Consumed | %d |\n", s.Consumed)
	fmt.Fprintf(&b, "| Left in queue | %d |\n", max(s.Produced-s.Consumed, 0))
	fmt.Fprintf(&b, "| Peak queue length | %d / %d |\n", s.MaxQueueLen, s.Capacity)
	fmt.Fprintf(&b, "| Average wait | %s |\n", s.AvgWait.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Average time in queue | %s |\n\n", s.AvgQueueTime.Round(time.Millisecond))

	b.WriteString("## Policy\n\n")
	fmt.Fprintf(&b, "%d reads and %d writes", s.Reads, s.Writes)
	if s.FinalPolicy != "" {
		fmt.Fprintf(&b, "; final policy `%s`", s.FinalPolicy)
	}
	b.WriteString(".\n\n")

	if len(s.PerWorker) > 0 || len(s.Roles) > 0 {
		b.WriteString("## Workers\n\n")
		b.WriteString("| Worker | Role | Iterations |\n|---|---|---|\n")
		for _, name := range workerOrder(s) {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", name, s.Roles[name], s.PerWorker[name])
		}
	}

	if len(s.Setup.Workers()) > 0 {
		c := config.FromWorkload(s.Setup, s.Mode)
		c.Seed = s.Seed
		if data, err := json.MarshalIndent(c, "", "  "); err == nil {
			b.WriteString("\n## Reproduce\n\n```json\n")
			b.Write(data)
			b.WriteString("\n```\n")
		}
	}

	return b.String()
}

// workerOrder sorts workers by role, then name
func workerOrder(s Stats) []string {
	seen := make(map[string]bool)
	var names []string
	for name := range s.Roles {
		seen[name] = true
		names = append(names, name)
	}
	for name := range s.PerWorker {
		if !seen[name] {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		ra, oka := s.Roles[a]
		rb, okb := s.Roles[b]
		switch {
		case oka && !okb:
			return -1
		case !oka && okb:
			return 1
		case ra != rb:
			return int(ra) - int(rb)
		}
		return strings.Compare(a, b)
	})
	return names
}
