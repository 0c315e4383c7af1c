package advisor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tickerdesk/internal/domain"
	"tickerdesk/internal/ta"
)

const (
	summaryPersona  = "你是一位资深财经新闻编辑和港股分析师，擅长从海量新闻中提炼核心信息。请用简洁专业的风格总结。"
	analysisPersona = "你是一位资深港股分析师，擅长技术分析和基本面分析。你的分析专业、客观、全面。"
	chatPersona     = "你是一位资深港股分析师和AI投资顾问。用户会基于实时行情数据向你提问，请给出专业、客观的回答。使用Markdown格式输出。"
	ratingPersona   = "你是一位资深港股分析师。请严格按要求的JSON格式返回评级结果，不要输出任何其他内容。"
)

// Prompt is one system/user message pair.
type Prompt struct {
	System string
	User   string
}

// num renders a quote field, "--" when the upstream did not report it.
func num(v float64) string {
	if v == 0 {
		return "--"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func quoteField(q *domain.Quote, pick func(*domain.Quote) float64) string {
	if q == nil {
		return "--"
	}
	return num(pick(q))
}

func label(sec domain.Security) string {
	return fmt.Sprintf("%s(%s)", sec.Name, sec.Code)
}

func recentCandles(candles []domain.Candle, n int) []domain.Candle {
	if len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}

func formatCandleLines(candles []domain.Candle, indent string) string {
	var sb strings.Builder
	for _, k := range candles {
		fmt.Fprintf(&sb, "%s%s: 开%s 收%s 高%s 低%s\n", indent, k.Date, num(k.Open), num(k.Close), num(k.High), num(k.Low))
	}
	return sb.String()
}

func indicator(v float64) string {
	if math.IsNaN(v) {
		return "--"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// indicatorLine summarizes the daily indicators, empty when there are too few
// candles for any of them.
func indicatorLine(candles []domain.Candle) string {
	s := ta.Summarize(candles)
	if math.IsNaN(s.MA5) && math.IsNaN(s.RSI14) {
		return ""
	}
	return fmt.Sprintf("MA5 %s  MA20 %s  RSI14 %s  MACD %s/%s  布林带 %s~%s",
		indicator(s.MA5), indicator(s.MA20), indicator(s.RSI14),
		indicator(s.MACD), indicator(s.MACDSignal),
		indicator(s.BollLower), indicator(s.BollUpper))
}

func newsTitles(items []domain.NewsItem, n int, withSource bool) string {
	if len(items) > n {
		items = items[:n]
	}
	var sb strings.Builder
	for _, it := range items {
		if withSource {
			fmt.Fprintf(&sb, "- %s（%s）\n", it.Title, it.Source)
		} else {
			fmt.Fprintf(&sb, "- %s\n", it.Title)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildSummaryPrompt asks for a digest of the latest 20 headlines.
func BuildSummaryPrompt(dc *domain.DashboardContext) Prompt {
	q := dc.Quote
	var lines strings.Builder
	for i, it := range dc.News {
		if i == 20 {
			break
		}
		lang := "CN"
		if it.Lang == domain.LangEN {
			lang = "EN"
		}
		fmt.Fprintf(&lines, "%d. [%s] %s（%s）\n", i+1, lang, it.Title, it.Source)
	}
	news := strings.TrimRight(lines.String(), "\n")
	if news == "" {
		news = "暂无新闻"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "请对以下%s相关新闻进行专业总结分析。\n\n", label(dc.Security))
	sb.WriteString("## 当前股价信息\n")
	fmt.Fprintf(&sb, "- 价格: %s HKD\n", quoteField(q, func(q *domain.Quote) float64 { return q.Price }))
	fmt.Fprintf(&sb, "- 涨跌: %s (%s%%)\n\n",
		quoteField(q, func(q *domain.Quote) float64 { return q.Change }),
		quoteField(q, func(q *domain.Quote) float64 { return q.ChangePct }))
	sb.WriteString("## 最新新闻列表\n")
	sb.WriteString(news)
	sb.WriteString("\n\n## 请输出:\n")
	sb.WriteString("1. **新闻要点总结**（3-5个核心要点，每个1-2句话）\n")
	sb.WriteString("2. **市场情绪判断**（偏多/偏空/中性，并说明原因）\n")
	sb.WriteString("3. **关键关注点**（未来需要跟踪的重点事件或数据）\n\n")
	sb.WriteString("要求：简洁精炼，要点明确，中文输出。如果有英文新闻请翻译总结。\n")
	fmt.Fprintf(&sb, "分析时间：%s", displayTime(dc.AsOf))

	return Prompt{System: summaryPersona, User: sb.String()}
}

// BuildAnalysisPrompt asks for the full six-part report.
func BuildAnalysisPrompt(dc *domain.DashboardContext) Prompt {
	q := dc.Quote
	f := func(pick func(*domain.Quote) float64) string { return quoteField(q, pick) }

	news := newsTitles(dc.News, 10, true)
	if news == "" {
		news = "暂无最新新闻"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "你是一位资深港股分析师和AI投资顾问。请根据以下%s的最新数据，\n", label(dc.Security))
	sb.WriteString("给出专业、详细的股票分析报告和投资建议。\n\n")
	sb.WriteString("## 当前股票数据\n")
	fmt.Fprintf(&sb, "- 股票名称: %s\n", dc.Security.Name)
	fmt.Fprintf(&sb, "- 股票代码: %s\n", dc.Security.Code)
	fmt.Fprintf(&sb, "- 当前价格: %s HKD\n", f(func(q *domain.Quote) float64 { return q.Price }))
	fmt.Fprintf(&sb, "- 涨跌额: %s\n", f(func(q *domain.Quote) float64 { return q.Change }))
	fmt.Fprintf(&sb, "- 涨跌幅: %s%%\n", f(func(q *domain.Quote) float64 { return q.ChangePct }))
	fmt.Fprintf(&sb, "- 今开: %s\n", f(func(q *domain.Quote) float64 { return q.Open }))
	fmt.Fprintf(&sb, "- 最高: %s\n", f(func(q *domain.Quote) float64 { return q.High }))
	fmt.Fprintf(&sb, "- 最低: %s\n", f(func(q *domain.Quote) float64 { return q.Low }))
	fmt.Fprintf(&sb, "- 昨收: %s\n", f(func(q *domain.Quote) float64 { return q.PrevClose }))
	fmt.Fprintf(&sb, "- 成交量: %s\n", f(func(q *domain.Quote) float64 { return q.Volume }))
	fmt.Fprintf(&sb, "- 成交额: %s\n", f(func(q *domain.Quote) float64 { return q.Turnover }))
	fmt.Fprintf(&sb, "- 市值: %s\n", f(func(q *domain.Quote) float64 { return q.MarketCap }))
	fmt.Fprintf(&sb, "- 市盈率: %s\n", f(func(q *domain.Quote) float64 { return q.PE }))
	fmt.Fprintf(&sb, "- 52周最高: %s\n", f(func(q *domain.Quote) float64 { return q.High52W }))
	fmt.Fprintf(&sb, "- 52周最低: %s\n\n", f(func(q *domain.Quote) float64 { return q.Low52W }))

	if recent := recentCandles(dc.Candles, 5); len(recent) > 0 {
		sb.WriteString("近5个交易日行情:\n")
		sb.WriteString(formatCandleLines(recent, "  "))
		sb.WriteString("\n")
	}
	if line := indicatorLine(dc.Candles); line != "" {
		fmt.Fprintf(&sb, "技术指标(日线): %s\n\n", line)
	}

	sb.WriteString("## 最新相关新闻\n")
	sb.WriteString(news)
	sb.WriteString("\n\n## 请输出以下内容:\n")
	sb.WriteString("1. **市场概览** - 当前价格走势分析\n")
	sb.WriteString("2. **技术面分析** - 基于K线数据的技术指标分析\n")
	sb.WriteString("3. **消息面分析** - 根据最新新闻解读市场情绪\n")
	sb.WriteString("4. **基本面分析** - 估值水平和业务发展\n")
	sb.WriteString("5. **风险提示** - 当前面临的主要风险\n")
	sb.WriteString("6. **操作建议** - 给出具体的投资建议（短期/中期/长期）\n\n")
	fmt.Fprintf(&sb, "请使用Markdown格式输出，要求专业、客观、全面。分析日期: %s\n\n", dc.AsOf.Format("2006年01月02日"))
	sb.WriteString("⚠️ 免责声明：以上分析仅供参考，不构成投资建议。投资有风险，入市需谨慎。")

	return Prompt{System: analysisPersona, User: sb.String()}
}

// BuildChatPrompt frames a user question with the current market context.
func BuildChatPrompt(dc *domain.DashboardContext, question string) Prompt {
	q := dc.Quote
	f := func(pick func(*domain.Quote) float64) string { return quoteField(q, pick) }

	news := newsTitles(dc.News, 10, false)
	if news == "" {
		news = "暂无"
	}
	candles := strings.TrimRight(formatCandleLines(recentCandles(dc.Candles, 5), "  "), "\n")
	if candles == "" {
		candles = "暂无"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s 当前数据\n", label(dc.Security))
	fmt.Fprintf(&sb, "- 价格: %s HKD\n", f(func(q *domain.Quote) float64 { return q.Price }))
	fmt.Fprintf(&sb, "- 涨跌: %s (%s%%)\n",
		f(func(q *domain.Quote) float64 { return q.Change }),
		f(func(q *domain.Quote) float64 { return q.ChangePct }))
	fmt.Fprintf(&sb, "- 今开: %s 最高: %s 最低: %s\n",
		f(func(q *domain.Quote) float64 { return q.Open }),
		f(func(q *domain.Quote) float64 { return q.High }),
		f(func(q *domain.Quote) float64 { return q.Low }))
	fmt.Fprintf(&sb, "- 成交量: %s 成交额: %s\n",
		f(func(q *domain.Quote) float64 { return q.Volume }),
		f(func(q *domain.Quote) float64 { return q.Turnover }))
	fmt.Fprintf(&sb, "- PE: %s 市值: %s\n\n",
		f(func(q *domain.Quote) float64 { return q.PE }),
		f(func(q *domain.Quote) float64 { return q.MarketCap }))
	sb.WriteString("## 近5日行情\n")
	sb.WriteString(candles)
	sb.WriteString("\n\n## 最新新闻\n")
	sb.WriteString(news)
	sb.WriteString("\n\n---\n\n## 用户的问题\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")

	return Prompt{System: chatPersona, User: sb.String()}
}

// BuildRatingPrompt asks for a strict JSON verdict for date.
func BuildRatingPrompt(dc *domain.DashboardContext, date string) Prompt {
	q := dc.Quote
	f := func(pick func(*domain.Quote) float64) string { return quoteField(q, pick) }

	news := newsTitles(dc.News, 12, true)
	if news == "" {
		news = "暂无最新新闻"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "你是一位资深港股分析师。请根据以下%s最新数据，给出今日投资评级。\n\n", label(dc.Security))
	sb.WriteString("## 当前股票数据\n")
	fmt.Fprintf(&sb, "- 当前价格: %s HKD\n", f(func(q *domain.Quote) float64 { return q.Price }))
	fmt.Fprintf(&sb, "- 涨跌幅: %s%%\n", f(func(q *domain.Quote) float64 { return q.ChangePct }))
	fmt.Fprintf(&sb, "- 今开: %s 最高: %s 最低: %s\n",
		f(func(q *domain.Quote) float64 { return q.Open }),
		f(func(q *domain.Quote) float64 { return q.High }),
		f(func(q *domain.Quote) float64 { return q.Low }))
	fmt.Fprintf(&sb, "- 成交量: %s  成交额: %s\n",
		f(func(q *domain.Quote) float64 { return q.Volume }),
		f(func(q *domain.Quote) float64 { return q.Turnover }))
	fmt.Fprintf(&sb, "- PE: %s  PB: %s\n",
		f(func(q *domain.Quote) float64 { return q.PE }),
		f(func(q *domain.Quote) float64 { return q.PB }))
	fmt.Fprintf(&sb, "- 市值: %s亿\n", f(func(q *domain.Quote) float64 { return q.MarketCap }))
	fmt.Fprintf(&sb, "- 换手率: %s%%  振幅: %s%%\n",
		f(func(q *domain.Quote) float64 { return q.TurnoverRate }),
		f(func(q *domain.Quote) float64 { return q.Amplitude }))
	fmt.Fprintf(&sb, "- 52周高: %s 52周低: %s\n\n",
		f(func(q *domain.Quote) float64 { return q.High52W }),
		f(func(q *domain.Quote) float64 { return q.Low52W }))

	if recent := recentCandles(dc.Candles, 10); len(recent) > 0 {
		sb.WriteString("近10个交易日行情:\n")
		sb.WriteString(formatCandleLines(recent, "  "))
		sb.WriteString("\n")
	}
	if line := indicatorLine(dc.Candles); line != "" {
		fmt.Fprintf(&sb, "技术指标(日线): %s\n\n", line)
	}

	sb.WriteString("## 最新新闻\n")
	sb.WriteString(news)
	sb.WriteString("\n\n## 评级要求\n")
	sb.WriteString("请严格以如下 JSON 格式返回（不要输出其他内容，仅返回 JSON）：\n")
	sb.WriteString(`{
  "rating": "强烈推荐/推荐/中性/谨慎/回避（五选一）",
  "score": 0-100的整数评分,
  "summary": "一句话评级理由（30字以内）",
  "factors": {
    "technical": "技术面一句话判断（20字以内）",
    "fundamental": "基本面一句话判断（20字以内）",
    "sentiment": "消息面一句话判断（20字以内）"
  }
}`)
	sb.WriteString("\n\n评分参考: 强烈推荐 80-100, 推荐 60-79, 中性 40-59, 谨慎 20-39, 回避 0-19\n")
	fmt.Fprintf(&sb, "评级日期: %s", date)

	return Prompt{System: ratingPersona, User: sb.String()}
}

func displayTime(t time.Time) string {
	return t.Format("2006年01月02日 15:04")
}
