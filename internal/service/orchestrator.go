// Package service contains the application services: the research
// pipeline, task submission, and account management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deepscout/deepscout/internal/adapter/otel"
	"github.com/deepscout/deepscout/internal/domain/research"
	"github.com/deepscout/deepscout/internal/port/llm"
	"github.com/deepscout/deepscout/internal/port/notifier"
	"github.com/deepscout/deepscout/internal/port/scraper"
	"github.com/deepscout/deepscout/internal/port/taskstore"
	"github.com/deepscout/deepscout/internal/port/websearch"
)

// minContentLength is the threshold below which extracted page content
// is considered too thin to summarize; the search snippet is used instead.
const minContentLength = 100

// summarizeWindow caps how much extracted content is fed to the
// summarization prompt.
const summarizeWindow = 2000

const decomposePrompt = `Break down this research query into 3-5 specific sub-questions that would help gather comprehensive information:

Query: %s

Return only the sub-questions, one per line, without numbering or bullet points.`

const summarizePrompt = `Summarize the following content in the context of this research question: %s

Content: %s

Provide a concise summary focusing on the most relevant information for the research question.`

const synthesizePrompt = `You are a professional business analyst and research expert. Your task is to generate a comprehensive, client-ready report based on the provided research findings. The report should be well-structured, insightful, and written in a formal, business-oriented tone.

**Client's Original Request:** "%s"

**Key Research Questions Explored:**
%s

**Synthesized Research Findings:**
%s

---

**Report Generation Instructions:**

Please generate a final report with the following sections. Ensure each section is clearly titled and contains insightful analysis, not just a list of facts. Use Markdown for professional formatting.

1.  **Executive Summary:**
    *   Start with a concise, high-level overview of the key findings and conclusions. This should be a standalone summary that gives a busy executive everything they need to know.

2.  **Introduction:**
    *   Briefly introduce the topic and the scope of the research based on the original query.

3.  **Key Findings & Analysis:**
    *   Present the most critical insights discovered during the research.
    *   Organize these findings into logical themes or categories.
    *   Use bullet points for clarity and impact.
    *   **Crucially, do not just repeat the summaries.** Synthesize the information to draw meaningful connections and conclusions.

4.  **Market Trends & Future Outlook (if applicable):**
    *   Analyze the current market landscape and project future trends.
    *   Discuss potential opportunities, challenges, and disruptive factors.

5.  **Conclusion & Strategic Recommendations:**
    *   Summarize the research and reiterate the most important takeaways.
    *   Provide clear, actionable recommendations based on the findings. What should the client do next with this information?

6.  **Sources & Further Reading:**
    *   List the primary sources used for the research to ensure credibility.

**Formatting Guidelines:**
*   Use Markdown for headings, bolding, and bullet points.
*   Maintain a professional and objective tone throughout the report.
*   Ensure the report is well-organized, easy to read, and free of jargon where possible.

Now, please generate the complete, professional report.`

// Orchestrator runs the research pipeline for a single task: decompose
// the query, research each sub-question, synthesize the report. Every
// stage degrades to placeholder output rather than aborting the task;
// only a store failure or panic ends a task in the error state.
type Orchestrator struct {
	store         taskstore.Store
	generator     llm.Generator
	searcher      websearch.Searcher
	extractor     scraper.Extractor
	notifier      notifier.Notifier
	metrics       *otel.Metrics
	resultsPerSub int
}

// NewOrchestrator creates a pipeline runner. metrics may be nil.
func NewOrchestrator(
	store taskstore.Store,
	generator llm.Generator,
	searcher websearch.Searcher,
	extractor scraper.Extractor,
	n notifier.Notifier,
	metrics *otel.Metrics,
	resultsPerSub int,
) *Orchestrator {
	if n == nil {
		n = notifier.Noop{}
	}
	if resultsPerSub <= 0 {
		resultsPerSub = 3
	}
	return &Orchestrator{
		store:         store,
		generator:     generator,
		searcher:      searcher,
		extractor:     extractor,
		notifier:      n,
		metrics:       metrics,
		resultsPerSub: resultsPerSub,
	}
}

// Run executes the full pipeline for the task. It is expected to be
// called on its own goroutine; the context should outlive the request
// that submitted the task.
func (o *Orchestrator) Run(ctx context.Context, taskID, query string) {
	ctx, span := otel.StartTaskSpan(ctx, taskID, query)
	defer span.End()

	start := time.Now()
	if o.metrics != nil {
		o.metrics.TasksStarted.Add(ctx, 1)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("research task panicked", "task_id", taskID, "panic", r)
			o.fail(ctx, taskID, fmt.Errorf("%v", r))
		}
	}()

	o.setStatus(ctx, taskID, research.StatusRunning)
	o.thought(ctx, taskID, fmt.Sprintf("Starting research on: %s", query))

	o.thought(ctx, taskID, "Breaking down the query into sub-questions...")
	subQuestions := o.breakDown(ctx, taskID, query)
	o.progress(ctx, taskID, 10)

	var findings []research.Finding
	for i, sq := range subQuestions {
		o.thought(ctx, taskID, fmt.Sprintf("Researching: %s", sq))
		findings = append(findings, o.researchSubQuestion(ctx, taskID, i, sq)...)
		o.progress(ctx, taskID, 10+70*(i+1)/len(subQuestions))
	}

	o.thought(ctx, taskID, "Compiling final report...")
	report := o.synthesize(ctx, taskID, query, subQuestions, findings)

	if err := o.store.SetReport(ctx, taskID, report); err != nil {
		o.fail(ctx, taskID, err)
		return
	}
	o.progress(ctx, taskID, 100)
	o.setStatus(ctx, taskID, research.StatusCompleted)
	o.thought(ctx, taskID, "Research completed successfully!")

	o.notifier.Publish(ctx, taskID, notifier.EventReportComplete,
		notifier.ReportCompleteEvent{TaskID: taskID, Report: report})

	if o.metrics != nil {
		o.metrics.TasksCompleted.Add(ctx, 1)
		o.metrics.TaskDuration.Record(ctx, time.Since(start).Seconds())
	}
	slog.Info("research task completed", "task_id", taskID,
		"sub_questions", len(subQuestions), "findings", len(findings),
		"duration_ms", time.Since(start).Milliseconds())
}

// breakDown turns the query into sub-questions. Generation failure of
// any kind falls back to three templated sub-questions built from the
// query, so decomposition never ends a task.
func (o *Orchestrator) breakDown(ctx context.Context, taskID, query string) []string {
	ctx, span := otel.StartDecomposeSpan(ctx, taskID)
	defer span.End()

	text, err := o.generate(ctx, fmt.Sprintf(decomposePrompt, query))
	if err != nil {
		o.thought(ctx, taskID, fmt.Sprintf("Error breaking down query: %v", err))
		return []string{
			fmt.Sprintf("What are the key players in %s?", query),
			fmt.Sprintf("What are the recent trends in %s?", query),
			fmt.Sprintf("What are the main challenges in %s?", query),
		}
	}

	var subQuestions []string
	for _, line := range strings.Split(text, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			subQuestions = append(subQuestions, q)
		}
	}
	for i, q := range subQuestions {
		o.thought(ctx, taskID, fmt.Sprintf("Sub-question %d: %s", i+1, q))
	}
	return subQuestions
}

// researchSubQuestion searches, extracts and summarizes for a single
// sub-question. It always returns at least one finding.
func (o *Orchestrator) researchSubQuestion(ctx context.Context, taskID string, index int, subQuestion string) []research.Finding {
	ctx, span := otel.StartSubQuestionSpan(ctx, taskID, index, subQuestion)
	defer span.End()

	o.thought(ctx, taskID, fmt.Sprintf("Searching for: %s", subQuestion))
	results, err := o.searcher.Search(ctx, subQuestion, o.resultsPerSub)
	if err != nil {
		o.thought(ctx, taskID, fmt.Sprintf("Error researching sub-question: %v", err))
		return []research.Finding{{
			Source:  "Error Recovery",
			URL:     research.SourceNotApplicable,
			Summary: fmt.Sprintf("Research encountered an error for: %s. This would typically include relevant information from industry sources and expert analysis.", subQuestion),
		}}
	}

	if len(results) == 0 {
		o.thought(ctx, taskID, "No search results found, using fallback data")
		return []research.Finding{{
			Source:  "Fallback Data",
			URL:     research.SourceNotApplicable,
			Summary: fmt.Sprintf("Unable to find specific information about: %s. This would typically contain relevant market data, industry insights, and expert analysis.", subQuestion),
		}}
	}

	var findings []research.Finding
	for i, result := range results {
		o.thought(ctx, taskID, fmt.Sprintf("Scraping result %d: %s", i+1, result.Title))

		content, err := o.extractor.Extract(ctx, result.URL)
		if err == nil && len(content) > minContentLength {
			findings = append(findings, research.Finding{
				Source:  result.Title,
				URL:     result.URL,
				Summary: o.summarize(ctx, taskID, content, subQuestion),
			})
			continue
		}

		o.thought(ctx, taskID, fmt.Sprintf("Scraping failed for %s, using search snippet", result.Title))
		snippet := result.Snippet
		if snippet == "" {
			snippet = "No content available"
		}
		findings = append(findings, research.Finding{
			Source:  result.Title,
			URL:     result.URL,
			Summary: snippet,
		})
	}
	return findings
}

// summarize condenses extracted content for one sub-question. Failures
// come back as placeholder summaries, quota exhaustion distinctly.
func (o *Orchestrator) summarize(ctx context.Context, taskID, content, subQuestion string) string {
	if len(content) > summarizeWindow {
		content = content[:summarizeWindow]
	}

	text, err := o.generate(ctx, fmt.Sprintf(summarizePrompt, subQuestion, content))
	if err != nil {
		if llm.IsQuota(err) {
			return "Summary unavailable due to API quota exceeded."
		}
		o.thought(ctx, taskID, fmt.Sprintf("Error summarizing content: %v", err))
		return "Summary unavailable due to processing error."
	}
	return text
}

// synthesize compiles all findings into the final report. Failures
// degrade to a placeholder report; the task still completes.
func (o *Orchestrator) synthesize(ctx context.Context, taskID, query string, subQuestions []string, findings []research.Finding) string {
	ctx, span := otel.StartSynthesizeSpan(ctx, taskID, len(findings))
	defer span.End()

	var questions strings.Builder
	for _, q := range subQuestions {
		fmt.Fprintf(&questions, "- %s\n", q)
	}

	var findingsText strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&findingsText, "Source: %s\nSummary: %s\n\n", f.Source, f.Summary)
	}

	prompt := fmt.Sprintf(synthesizePrompt, query, questions.String(), findingsText.String())

	report, err := o.generate(ctx, prompt)
	if err != nil {
		if llm.IsQuota(err) {
			return "Report compilation failed. API quota exceeded. Please check your plan and billing details."
		}
		o.thought(ctx, taskID, fmt.Sprintf("Error compiling report: %v", err))
		return "Report compilation failed due to processing error."
	}
	return report
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.metrics != nil {
		o.metrics.LLMCalls.Add(ctx, 1)
	}
	return o.generator.Generate(ctx, prompt)
}

// thought appends one narrative line and streams it to subscribers.
func (o *Orchestrator) thought(ctx context.Context, taskID, text string) {
	if err := o.store.AppendThought(ctx, taskID, text); err != nil {
		slog.Error("append thought failed", "task_id", taskID, "error", err)
		return
	}
	slog.Debug("thought", "task_id", taskID, "text", text)
	o.notifier.Publish(ctx, taskID, notifier.EventThought,
		notifier.ThoughtEvent{Thought: text, TaskID: taskID})
}

func (o *Orchestrator) progress(ctx context.Context, taskID string, pct int) {
	if err := o.store.SetProgress(ctx, taskID, pct); err != nil {
		slog.Error("set progress failed", "task_id", taskID, "error", err)
		return
	}
	o.notifier.Publish(ctx, taskID, notifier.EventProgress,
		notifier.ProgressEvent{Progress: pct, TaskID: taskID})
}

func (o *Orchestrator) setStatus(ctx context.Context, taskID string, status research.Status) {
	if err := o.store.SetStatus(ctx, taskID, status); err != nil {
		slog.Error("set status failed", "task_id", taskID, "status", status, "error", err)
	}
}

// fail moves the task to the error state and notifies subscribers.
func (o *Orchestrator) fail(ctx context.Context, taskID string, err error) {
	o.setStatus(ctx, taskID, research.StatusError)
	o.thought(ctx, taskID, fmt.Sprintf("Error occurred: %v", err))
	o.notifier.Publish(ctx, taskID, notifier.EventError,
		notifier.ErrorEvent{TaskID: taskID, Error: err.Error()})
	if o.metrics != nil {
		o.metrics.TasksFailed.Add(ctx, 1)
	}
}
