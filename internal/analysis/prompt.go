package analysis

import (
	"fmt"
	"strings"
	"time"
)

// coachSystemPrompt defines the StrategyAI persona the analysis runs under.
func coachSystemPrompt() string {
	now := time.Now()
	days := int(examDate.Sub(now).Hours() / 24)

	var sb strings.Builder
	sb.WriteString("You are StrategyAI (students call you SAI) - a no-nonsense CAT exam strategist ")
	sb.WriteString("with 10+ years of experience. You cut through the fluff and give straight-up ")
	sb.WriteString("actionable insights to boost CAT scores.\n\n")
	sb.WriteString("PERSONALITY: Conversational, direct, and Spartan. Zero corporate jargon. ")
	sb.WriteString("Talk like a friend who genuinely wants the student to crush this exam.\n\n")
	sb.WriteString(fmt.Sprintf("CONTEXT:\n- Today's Date: %s\n- CAT Exam Date: %s\n- Days Remaining: %d\n\n",
		now.Format("January 2, 2006"), examDate.Format("January 2, 2006"), days))
	sb.WriteString("When given performance data, produce sections:\n")
	sb.WriteString("## Performance Reality Check (standing vs CAT standards, what works, what needs fixing)\n")
	sb.WriteString("## Section Breakdown (VARC, DILR, QA: numbers, time efficiency, what to change)\n")
	sb.WriteString("## Time Management Truth (usage of the 40 minutes per section, where time bleeds)\n")
	sb.WriteString("## Strategy Reality Check (question selection, accuracy vs speed, MCQ vs TITA)\n")
	sb.WriteString("## Your Next 7-10 Days Action Plan (top 3 focus areas, daily routine, one mock tweak)\n")
	sb.WriteString("## Your Path Forward (realistic score targets for the next mock)\n\n")
	sb.WriteString("GUIDELINES:\n")
	sb.WriteString("- Use SPECIFIC numbers from the performance data\n")
	sb.WriteString("- Give ACTIONABLE advice, not motivational speeches\n")
	sb.WriteString("- Be HONEST but encouraging\n")
	sb.WriteString("- Keep it conversational and direct\n")
	sb.WriteString("- Focus on 7-10 day plans, not the entire remaining time\n")
	return sb.String()
}

// formatPerformance renders an attempt into the plain-text block the coach reads.
func formatPerformance(data PerformanceData) string {
	var sb strings.Builder

	sb.WriteString("Test Details:\n")
	sb.WriteString(fmt.Sprintf("- Test: %s\n", data.TestName))
	sb.WriteString(fmt.Sprintf("- Date: %s\n", data.SubmittedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("- Student: %s\n", data.Username))

	pct := 0.0
	if data.MaxMarks > 0 {
		pct = float64(data.TotalMarks) / float64(data.MaxMarks) * 100
	}
	sb.WriteString("\nOverall Performance:\n")
	sb.WriteString(fmt.Sprintf("- Total Score: %d/%d (%.1f%%)\n", data.TotalMarks, data.MaxMarks, pct))

	sb.WriteString("\nSection-wise Performance:\n")
	for _, s := range data.Sections {
		sb.WriteString(fmt.Sprintf("\n%s:\n", s.Section))
		sectionPct := 0.0
		if s.MaxMarks > 0 {
			sectionPct = float64(s.Marks) / float64(s.MaxMarks) * 100
		}
		sb.WriteString(fmt.Sprintf("  - Score: %d/%d (%.1f%%)\n", s.Marks, s.MaxMarks, sectionPct))
		sb.WriteString(fmt.Sprintf("  - Questions Attempted: %d\n", s.Attempted))
		sb.WriteString(fmt.Sprintf("  - Questions Correct: %d\n", s.Correct))
		sb.WriteString(fmt.Sprintf("  - Section Accuracy: %.1f%%\n", s.Accuracy))
		if s.AvgTime > 0 {
			sb.WriteString(fmt.Sprintf("  - Avg Time: %s per question\n", formatSeconds(s.AvgTime)))
		}
	}

	if data.TimeSpent > 0 {
		sb.WriteString("\nTime Management Analysis:\n")
		sb.WriteString(fmt.Sprintf("- Total Time Used: %s\n", formatSeconds(float64(data.TimeSpent))))
		if data.Attempted > 0 {
			avg := float64(data.TimeSpent) / float64(data.Attempted)
			sb.WriteString(fmt.Sprintf("- Average per Question: %s\n", formatSeconds(avg)))
		}
	}

	if len(data.Types) > 0 {
		sb.WriteString("\nQuestion Type Analysis:\n")
		for qtype, stats := range data.Types {
			if stats.Attempted == 0 {
				continue
			}
			accuracy := float64(stats.Correct) / float64(stats.Attempted) * 100
			sb.WriteString(fmt.Sprintf("- %s: %d/%d (%.1f%% accuracy)\n",
				qtype, stats.Correct, stats.Attempted, accuracy))
		}
	}

	sb.WriteString("\nAdditional Context:\n")
	sb.WriteString("- This is a CAT mock test analysis\n")
	sb.WriteString("- CAT marking: +3 correct, -1 wrong MCQ, 0 wrong TITA\n")
	sb.WriteString("- Target CAT percentile range: 85-99+ (120+ marks)\n")
	sb.WriteString("- Section time limit: 40 minutes each\n")

	return sb.String()
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	m := total / 60
	s := total % 60
	if m >= 60 {
		return fmt.Sprintf("%dh %dm %ds", m/60, m%60, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
