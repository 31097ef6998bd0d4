package analysis

import (
	"fmt"
	"strings"
	"time"
)

// basicAnalysis is the deterministic analysis served when no LLM is reachable.
func basicAnalysis(data PerformanceData) *Result {
	now := time.Now()
	days := int(examDate.Sub(now).Hours() / 24)

	accuracy := 0.0
	if data.Attempted > 0 {
		accuracy = float64(data.Correct) / float64(data.Attempted) * 100
	}
	pct := 0.0
	if data.MaxMarks > 0 {
		pct = float64(data.TotalMarks) / float64(data.MaxMarks) * 100
	}

	var sb strings.Builder
	sb.WriteString("Hey there! StrategyAI here.\n\n")
	sb.WriteString("I'm running on basic mode right now, but let me give you the essentials:\n\n")
	sb.WriteString("## Your Performance Reality Check\n\n")
	sb.WriteString(fmt.Sprintf("**Overall Score:** %d/%d (%.1f%%)\n", data.TotalMarks, data.MaxMarks, pct))
	sb.WriteString(fmt.Sprintf("**Today:** %s\n", now.Format("January 2, 2006")))
	sb.WriteString(fmt.Sprintf("**CAT Exam:** %s (%d days to go!)\n\n", examDate.Format("January 2, 2006"), days))

	sb.WriteString("**Section Breakdown:**\n")
	for _, s := range data.Sections {
		sectionPct := 0.0
		if s.MaxMarks > 0 {
			sectionPct = float64(s.Marks) / float64(s.MaxMarks) * 100
		}
		sb.WriteString(fmt.Sprintf("- %s: %d/%d (%.1f%%)\n", s.Section, s.Marks, s.MaxMarks, sectionPct))
	}
	sb.WriteString(fmt.Sprintf("\n**Accuracy:** %.1f%% (%d/%d questions)\n\n", accuracy, data.Correct, data.Attempted))

	sb.WriteString("## What's Working For You\n")
	sb.WriteString(identifyStrengths(data.Sections))
	sb.WriteString("\n\n## What Needs Your Attention\n")
	sb.WriteString(identifyWeaknesses(data.Sections))

	sb.WriteString("\n\n## Your Next 7 Days Game Plan\n\n")
	sb.WriteString("1. **Priority Fix:** Focus on your weakest section first\n")
	sb.WriteString("2. **Mock Strategy:** Take one more mock this week, focus on accuracy over speed\n")
	sb.WriteString("3. **Time Practice:** Do 40-minute section-wise practice daily\n")
	sb.WriteString("4. **Review Ritual:** Spend 30 minutes analyzing wrong answers\n\n")
	sb.WriteString("That's your basic game plan! For detailed AI insights, configure the OpenAI API key.\n")

	return &Result{
		Status:      "success",
		Analysis:    sb.String(),
		GeneratedAt: now,
		Source:      "programmatic",
	}
}

func identifyStrengths(sections []SectionStats) string {
	if len(sections) == 0 {
		return "- Complete more questions to identify strengths"
	}

	best := sections[0]
	bestPct := sectionPercent(best)
	for _, s := range sections[1:] {
		if sectionPercent(s) > bestPct {
			best, bestPct = s, sectionPercent(s)
		}
	}

	var lines []string
	if bestPct > 60 {
		lines = append(lines, fmt.Sprintf("- Strong performance in %s (%.1f%%)", best.Section, bestPct))
	}
	for _, s := range sections {
		if s.Section != best.Section && sectionPercent(s) > 50 {
			lines = append(lines, fmt.Sprintf("- Good grasp of %s concepts", s.Section))
		}
	}
	if len(lines) == 0 {
		return "- Focus on building foundational concepts"
	}
	return strings.Join(lines, "\n")
}

func identifyWeaknesses(sections []SectionStats) string {
	if len(sections) == 0 {
		return "- Complete more questions for detailed analysis"
	}

	var lines []string
	for _, s := range sections {
		pct := sectionPercent(s)
		switch {
		case pct < 40:
			lines = append(lines, fmt.Sprintf("- %s needs significant improvement (%.1f%%)", s.Section, pct))
		case pct < 60:
			lines = append(lines, fmt.Sprintf("- %s has room for improvement (%.1f%%)", s.Section, pct))
		}
	}
	if len(lines) == 0 {
		return "- Overall solid performance, focus on fine-tuning"
	}
	return strings.Join(lines, "\n")
}

func sectionPercent(s SectionStats) float64 {
	if s.MaxMarks <= 0 {
		return 0
	}
	return float64(s.Marks) / float64(s.MaxMarks) * 100
}
