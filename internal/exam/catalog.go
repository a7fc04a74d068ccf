package exam

import (
	"fmt"

	"github.com/pavelanni/studymate/internal/model"
)

// Plan is the fixed composition of one exam type: ordered subjects and the
// total allotted time. The catalog below is the single source of truth for
// both the session engine and the server-side score recomputation.
type Plan struct {
	Type      model.ExamType
	Subjects  []model.SubjectConfig // fixed order
	TotalTime int                   // seconds
}

var catalog = map[model.ExamType]Plan{
	model.ExamTYT: {
		Type:      model.ExamTYT,
		TotalTime: 165 * 60,
		Subjects: []model.SubjectConfig{
			{Name: "Türkçe", QuestionCount: 40, TimeLimit: 40, Weight: 1.32},
			{Name: "Sosyal Bilimler Testi", QuestionCount: 20, TimeLimit: 20, Weight: 1.36},
			{Name: "Temel Matematik Testi", QuestionCount: 40, TimeLimit: 40, Weight: 1.32},
			{Name: "Fen Bilimleri Testi", QuestionCount: 20, TimeLimit: 20, Weight: 1.36},
		},
	},
	model.ExamAYT: {
		Type:      model.ExamAYT,
		TotalTime: 180 * 60,
		Subjects: []model.SubjectConfig{
			{Name: "Türk Dili ve Edebiyatı-Sosyal Bilimler I", QuestionCount: 40, TimeLimit: 45, Weight: 1.32},
			{Name: "Matematik", QuestionCount: 40, TimeLimit: 45, Weight: 1.32},
			{Name: "Fen Bilimleri", QuestionCount: 40, TimeLimit: 45, Weight: 1.36},
			{Name: "Sosyal Bilimler II", QuestionCount: 40, TimeLimit: 45, Weight: 1.36},
		},
	},
}

// CatalogPlan returns the fixed plan for an exam type.
func CatalogPlan(t model.ExamType) (Plan, error) {
	p, ok := catalog[t]
	if !ok {
		return Plan{}, fmt.Errorf("no exam plan for type %q", t)
	}
	return p, nil
}

// SubjectNames returns the plan's subject names in exam order.
func (p Plan) SubjectNames() []string {
	names := make([]string, len(p.Subjects))
	for i, s := range p.Subjects {
		names[i] = s.Name
	}
	return names
}

// Subject looks up a subject's configuration by name.
func (p Plan) Subject(name string) (model.SubjectConfig, bool) {
	for _, s := range p.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return model.SubjectConfig{}, false
}
