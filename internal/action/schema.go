package action

import "github.com/editalmaster/editalmaster/internal/llm"

// The same definition map is sent to the model as a generation constraint
// and re-checked by the validator after sanitizing, so the two can't drift.

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func metadataProperties() map[string]any {
	return map[string]any{
		"nome":         stringProp(),
		"salario":      stringProp(),
		"vagas":        stringProp(),
		"escolaridade": stringProp(),
		"datas": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"inscricao": stringProp(),
				"prova":     stringProp(),
			},
		},
		"requisitos": stringProp(),
		"taf":        stringProp(),
	}
}

func subjectTopicsDefinition() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"disciplina": stringProp(),
			"topicos":    stringArrayProp(),
		},
		"required": []any{"disciplina", "topicos"},
	}
}

func metadataSchema() *llm.Schema {
	props := metadataProperties()
	return &llm.Schema{
		Name:        "exam-metadata",
		Description: "Informações gerais extraídas de um edital de concurso.",
		Definition: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{"nome"},
		},
	}
}

func syllabusSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "syllabus",
		Description: "Conteúdo programático de um edital, por disciplina.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"materias": map[string]any{
					"type":  "array",
					"items": subjectTopicsDefinition(),
				},
			},
			"required": []any{"materias"},
		},
	}
}

func subjectTopicsSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "subject-topics",
		Description: "Tópicos de uma única disciplina do edital.",
		Definition:  subjectTopicsDefinition(),
	}
}

func fullProfileSchema() *llm.Schema {
	props := metadataProperties()
	props["disciplinas"] = stringArrayProp()
	props["materias"] = map[string]any{
		"type":  "array",
		"items": subjectTopicsDefinition(),
	}
	return &llm.Schema{
		Name:        "full-exam-profile",
		Description: "Perfil completo de um edital: metadados e conteúdo programático.",
		Definition: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{"nome", "disciplinas"},
		},
	}
}

func mockExamSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "mock-exam",
		Description: "Simulado de múltipla escolha gerado a partir das disciplinas do edital.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text":         stringProp(),
							"options":      stringArrayProp(),
							"correctIndex": map[string]any{"type": "integer"},
							"explanation":  stringProp(),
							"discipline":   stringProp(),
							"difficulty": map[string]any{
								"type": "string",
								"enum": []any{"easy", "medium", "hard"},
							},
						},
						"required": []any{"text", "options", "correctIndex", "explanation", "discipline"},
					},
				},
			},
			"required": []any{"questions"},
		},
	}
}

func studyGuideSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "study-guide",
		Description: "Guia de estudos de uma disciplina: resumo, bibliografia e dicas.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":      stringProp(),
				"bibliography": stringArrayProp(),
				"tips":         stringArrayProp(),
			},
			"required": []any{"summary"},
		},
	}
}
