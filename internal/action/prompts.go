package action

import (
	"fmt"
	"strings"
)

// The prompts speak Portuguese: the notices are Brazilian and the students
// study in Portuguese.

func planPrompt(doc string) string {
	var sb strings.Builder
	sb.WriteString("Aja como um tutor especialista. Com base no texto deste edital:\n")
	sb.WriteString(doc)
	sb.WriteString("\n\nCrie um cronograma de estudos semanal detalhado e tabelado.\n")
	sb.WriteString("Saída em Markdown.\n")
	return sb.String()
}

func quizPrompt(topic, doc string) string {
	var sb strings.Builder
	if doc != "" {
		sb.WriteString("Edital de referência:\n")
		sb.WriteString(doc)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Com base no edital fornecido, crie um QUIZ de 5 questões múltipla escolha sobre o tópico: %s.\n", topic)
	sb.WriteString("Formate a saída assim:\n")
	sb.WriteString("**Pergunta**\n")
	sb.WriteString("a) ...\n")
	sb.WriteString("b) ...\n")
	sb.WriteString("...\n")
	sb.WriteString("**Resposta Correta:** X\n")
	sb.WriteString("**Explicação:** ...\n")
	return sb.String()
}

func analyzePrompt(doc string) string {
	return "Analise este texto de edital:\n\n" + doc
}

func metadataSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("Você é um Analista Especialista em Editais Brasileiros.\n")
	sb.WriteString("Sua missão é ler o documento fornecido e DECOMPOR as informações gerais do concurso.\n\n")
	sb.WriteString("CRITÉRIOS DE BUSCA:\n")
	sb.WriteString("1. NOME: Procure pelo órgão e cargo no cabeçalho (ex: Prefeitura de SP - Auditor).\n")
	sb.WriteString(`2. SALÁRIO: Procure por "Vencimentos", "Remuneração", "R$" ou "Salário-base".` + "\n")
	sb.WriteString(`3. VAGAS: Busque no quadro de vagas por "Total", "AC" + "CR".` + "\n")
	sb.WriteString(`4. DATAS: Procure o cronograma. Identifique "Inscrições" e "Prova Objetiva".` + "\n")
	sb.WriteString(`5. TAF: Procure por "Aptidão Física", "Capacidade Física" ou "Teste de Esforço". Descreva os exercícios.` + "\n\n")
	sb.WriteString(`IMPORTANTE: Se não encontrar dados claros, tente inferir pelo contexto ou use "A Consultar". Nunca invente valores.` + "\n")
	sb.WriteString("Responda estritamente em JSON válido.")
	return sb.String()
}

func syllabusSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("Você é um Analista Especialista em Editais Brasileiros.\n")
	sb.WriteString(`Vá até o anexo de "Conteúdo Programático" do documento e extraia as matérias com seus tópicos.` + "\n")
	sb.WriteString("Ignore o texto burocrático (recursos, prazos, disposições gerais); apenas o conteúdo de estudo interessa.\n")
	sb.WriteString("Extraia os nomes das matérias como uma lista limpa, cada uma com seus tópicos.\n")
	sb.WriteString("Responda estritamente em JSON válido.")
	return sb.String()
}

func subjectTopicsSystemPrompt(discipline string) string {
	var sb strings.Builder
	sb.WriteString("Você é um Analista Especialista em Editais Brasileiros.\n")
	fmt.Fprintf(&sb, "Extraia do documento APENAS os tópicos da disciplina %q.\n", discipline)
	sb.WriteString(`Aceite variações próximas do nome (ex: "Língua Portuguesa" equivale a "Português").` + "\n")
	sb.WriteString("Responda estritamente em JSON válido.")
	return sb.String()
}

func fullProfileSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("Você é um Analista Especialista em Editais Brasileiros.\n")
	sb.WriteString("Sua missão é ler o documento fornecido e DECOMPOR as informações.\n\n")
	sb.WriteString("CRITÉRIOS DE BUSCA:\n")
	sb.WriteString("1. NOME: Procure pelo órgão e cargo no cabeçalho (ex: Prefeitura de SP - Auditor).\n")
	sb.WriteString(`2. SALÁRIO: Procure por "Vencimentos", "Remuneração", "R$" ou "Salário-base".` + "\n")
	sb.WriteString(`3. VAGAS: Busque no quadro de vagas por "Total", "AC" + "CR".` + "\n")
	sb.WriteString(`4. DISCIPLINAS: Vá até o anexo de "Conteúdo Programático". Extraia os nomes das matérias como uma lista limpa.` + "\n")
	sb.WriteString(`5. DATAS: Procure o cronograma. Identifique "Inscrições" e "Prova Objetiva".` + "\n")
	sb.WriteString(`6. TAF: Procure por "Aptidão Física", "Capacidade Física" ou "Teste de Esforço". Descreva os exercícios.` + "\n\n")
	sb.WriteString(`IMPORTANTE: Se não encontrar dados claros, tente inferir pelo contexto ou use "A Consultar".` + "\n")
	sb.WriteString("A lista de DISCIPLINAS é o item MAIS IMPORTANTE para o app funcionar.\n")
	sb.WriteString("Responda estritamente em JSON válido.")
	return sb.String()
}

func mockExamSystemPrompt(count int, disciplines []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gere %d questões de concurso para: %s.\n", count, strings.Join(disciplines, ", "))
	sb.WriteString("Distribua as questões proporcionalmente entre as disciplinas e misture níveis de dificuldade.\n")
	sb.WriteString("Cada questão tem 4 ou 5 alternativas e exatamente uma correta, com explicação.\n")
	sb.WriteString("Responda em JSON.")
	return sb.String()
}

func studyGuideSystemPrompt(discipline string) string {
	return fmt.Sprintf("Mentor de Concursos. Gere Guia de Estudos para %q: Resumo, Bibliografia e Dicas. JSON estrito.", discipline)
}

func deepenPrompt(discipline, query string) string {
	return fmt.Sprintf("Disciplina: %s. Dúvida do aluno: %q. Explique tecnicamente para concurso.", discipline, query)
}
