package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/semestra/internal/grade"
	"github.com/starford/semestra/internal/models"
)

// GradingScaleURI identifies the grading-scale resource.
const GradingScaleURI = "semestra://grading-scale"

// GradingScale renders the grade table and the GPA rules as Markdown, so an
// assistant can explain results without guessing the institution's scale.
func GradingScale() string {
	var b strings.Builder
	b.WriteString("# Grading scale\n\n")
	b.WriteString("| Grade | Points |\n|---|---|\n")
	for _, code := range grade.Codes() {
		fmt.Fprintf(&b, "| %s | %.2f |\n", code, grade.PointOf(code))
	}
	fmt.Fprintf(&b, `
## Rules

1. Semester GPA = sum(points x credits) / sum(credits), shown to two decimals.
2. A subject without a grade is worth 0.00 but its credits still count.
3. CGPA weights every saved semester's GPA by its total credits.
4. Credits per subject range from %g to %g.
5. Semesters Y3S1 to Y4S2 need a declared focus area (COMMON, SOFTWARE,
   NETWORKING or MULTIMEDIA) before they can be edited. Modules tagged
   "%s" are always shown; others only for the matching area.
`, models.MinCredits, models.MaxCredits, models.TagCommon)
	return b.String()
}
