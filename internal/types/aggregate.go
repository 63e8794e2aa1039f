package types

// CurriculumNode pairs an outline row with its (optional) video row.
type CurriculumNode struct {
	Outline *CurriculumOutline `json:"outline"`
	Video   *CurriculumVideo   `json:"video,omitempty"`
}

// CourseAggregate is the full authoring view of one course: the course row,
// its active intro video and its active curriculum nodes in sequence order.
type CourseAggregate struct {
	Course     *Course           `json:"course"`
	IntroVideo *IntroVideo       `json:"intro_video,omitempty"`
	Nodes      []*CurriculumNode `json:"nodes"`
}
