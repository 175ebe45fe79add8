package checksum

import (
	"testing"

	"github.com/starford/semestra/internal/models"
)

func TestSum(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestRecord(t *testing.T) {
	subjects := []models.Subject{{Name: "Maths", Credits: 3, Grade: "A"}}
	a, err := Record("Year 1 Semester 1", subjects)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Record("Year 1 Semester 1", models.CloneSubjects(subjects))
	if a != b {
		t.Errorf("equal content gave %s and %s", a, b)
	}

	subjects[0].Grade = "B"
	c, _ := Record("Year 1 Semester 1", subjects)
	if a == c {
		t.Error("grade change did not change the checksum")
	}

	nilSum, _ := Record("x", nil)
	emptySum, _ := Record("x", []models.Subject{})
	if nilSum != emptySum {
		t.Error("nil and empty subject lists should digest the same")
	}
}
