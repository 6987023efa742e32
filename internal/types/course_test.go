package types

import "testing"

func TestNormalizeCourseCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"math101", "MATH101"},
		{"  cs-2b  ", "CS-2B"},
		{"ALREADY", "ALREADY"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCourseCode(tc.in); got != tc.want {
			t.Fatalf("NormalizeCourseCode(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestTeacherHasCourseCode(t *testing.T) {
	tr := &Teacher{CourseCodes: []string{"MATH101", "CS-2B"}}
	if !tr.HasCourseCode("MATH101") {
		t.Fatalf("expected MATH101 to be held")
	}
	if tr.HasCourseCode("math101") {
		t.Fatalf("membership is exact match over normalized codes")
	}
}
