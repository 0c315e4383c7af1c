package advisor

import (
	"fmt"
	"math"
	"strings"

	"tickerdesk/internal/domain"
	"tickerdesk/internal/ta"
)

// FallbackReport renders a deterministic markdown report from cached data
// alone. It is served when no model is configured or the model fails before
// producing anything.
func FallbackReport(dc *domain.DashboardContext) string {
	q := dc.Quote
	f := func(pick func(*domain.Quote) float64) string { return quoteField(q, pick) }
	name := label(dc.Security)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# 🏦 %s AI分析报告\n\n", name)
	fmt.Fprintf(&sb, "> 📅 分析时间：%s\n\n---\n\n", displayTime(dc.AsOf))

	sb.WriteString("## 1. 📊 市场概览\n\n")
	fmt.Fprintf(&sb, "%s当前报价 **%s HKD**，涨跌额 %s，涨跌幅 %s%%。\n\n", name,
		f(func(q *domain.Quote) float64 { return q.Price }),
		f(func(q *domain.Quote) float64 { return q.Change }),
		f(func(q *domain.Quote) float64 { return q.ChangePct }))
	sb.WriteString("| 指标 | 数值 |\n|------|------|\n")
	rows := []struct {
		label string
		pick  func(*domain.Quote) float64
	}{
		{"今日开盘", func(q *domain.Quote) float64 { return q.Open }},
		{"最高价", func(q *domain.Quote) float64 { return q.High }},
		{"最低价", func(q *domain.Quote) float64 { return q.Low }},
		{"昨日收盘", func(q *domain.Quote) float64 { return q.PrevClose }},
		{"成交量", func(q *domain.Quote) float64 { return q.Volume }},
		{"成交额", func(q *domain.Quote) float64 { return q.Turnover }},
		{"市盈率(PE)", func(q *domain.Quote) float64 { return q.PE }},
		{"总市值", func(q *domain.Quote) float64 { return q.MarketCap }},
		{"52周最高", func(q *domain.Quote) float64 { return q.High52W }},
		{"52周最低", func(q *domain.Quote) float64 { return q.Low52W }},
	}
	fmt.Fprintf(&sb, "| 当前价格 | %s HKD |\n", f(func(q *domain.Quote) float64 { return q.Price }))
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %s |\n", r.label, f(r.pick))
	}
	sb.WriteString("\n---\n\n")

	sb.WriteString("## 2. 📈 技术面分析\n\n")
	if trend := trendText(dc.Candles); trend != "" {
		sb.WriteString(trend)
		sb.WriteString("\n\n")
		sb.WriteString("| 日期 | 开盘 | 收盘 | 最高 | 最低 | 涨跌 |\n")
		sb.WriteString("|------|------|------|------|------|------|\n")
		for _, k := range recentCandles(dc.Candles, 5) {
			delta := k.Close - k.Open
			mark := "🔴"
			if delta < 0 {
				mark = "🟢"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s %+.2f |\n",
				k.Date, num(k.Open), num(k.Close), num(k.High), num(k.Low), mark, delta)
		}
	} else {
		sb.WriteString("暂无足够的K线数据进行技术分析。\n")
	}
	if line := indicatorLine(dc.Candles); line != "" {
		fmt.Fprintf(&sb, "\n**技术指标（日线）**：%s\n", line)
	}
	sb.WriteString("\n**技术指标解读：**\n")
	sb.WriteString("- 关注成交量变化，放量上涨为积极信号\n")
	sb.WriteString("- 关注关键支撑位与阻力位的突破情况\n")
	sb.WriteString("- 建议结合MACD、RSI等技术指标综合判断\n\n---\n\n")

	sb.WriteString("## 3. 📰 消息面分析\n\n")
	if len(dc.News) > 0 {
		items := dc.News
		if len(items) > 8 {
			items = items[:8]
		}
		for _, it := range items {
			fmt.Fprintf(&sb, "- %s（来源: %s）\n", it.Title, it.Source)
		}
		fmt.Fprintf(&sb, "\n以上新闻反映了市场对%s的最新关注点。投资者需结合新闻内容分析对股价的潜在影响。\n", dc.Security.Name)
	} else {
		fmt.Fprintf(&sb, "暂未获取到最新的%s相关新闻。\n", dc.Security.Name)
	}
	sb.WriteString("\n---\n\n")

	sb.WriteString("## 4. 🏢 基本面分析\n\n")
	fmt.Fprintf(&sb, "当前市盈率为 %s，市净率为 %s，股息率为 %s%%，每股净资产 %s。",
		f(func(q *domain.Quote) float64 { return q.PE }),
		f(func(q *domain.Quote) float64 { return q.PB }),
		f(func(q *domain.Quote) float64 { return q.DividendYield }),
		f(func(q *domain.Quote) float64 { return q.NAVPerShare }))
	sb.WriteString("投资者可参考历史估值中枢评估当前估值水平，并结合财报与业务数据判断增长质量。\n\n---\n\n")

	sb.WriteString("## 5. ⚠️ 风险提示\n\n")
	sb.WriteString("1. **政策监管风险**：行业政策持续演变，需关注监管动态\n")
	sb.WriteString("2. **宏观经济风险**：全球经济不确定性可能影响业务增长\n")
	sb.WriteString("3. **行业竞争风险**：主要业务领域竞争加剧\n")
	sb.WriteString("4. **地缘政治风险**：国际关系变化可能影响港股市场情绪\n")
	sb.WriteString("5. **汇率风险**：港币兑人民币汇率波动影响实际收益\n\n---\n\n")

	sb.WriteString("## 6. 💡 操作建议\n\n")
	sb.WriteString("| 策略 | 建议 |\n|------|------|\n")
	sb.WriteString("| **短期（1-2周）** | 关注技术面支撑/压力位，轻仓灵活操作 |\n")
	sb.WriteString("| **中期（1-3月）** | 关注财报发布和业务数据，逢低布局 |\n")
	sb.WriteString("| **长期（6月以上）** | 结合基本面与估值，分批建仓 |\n\n---\n\n")

	sb.WriteString("> ⚠️ **免责声明**：以上分析由本地模板生成，仅供参考，不构成任何投资建议。投资有风险，入市需谨慎。请投资者根据自身风险承受能力做出独立判断。\n")
	return sb.String()
}

// FallbackWarning prefixes the template when the model failed.
func FallbackWarning(err error) string {
	msg := err.Error()
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	return fmt.Sprintf("\n\n> ⚠️ **AI模型调用失败**：%s\n\n> 已降级为本地模板分析。\n\n---\n\n", msg)
}

// trendText compares the last five closes and the 5/20-day averages.
func trendText(candles []domain.Candle) string {
	if len(candles) < 5 {
		return ""
	}
	recent := recentCandles(candles, 5)
	first, last := recent[0].Close, recent[len(recent)-1].Close

	var text string
	switch {
	case last > first:
		text = "近5个交易日整体呈上涨趋势"
	case last < first:
		text = "近5个交易日整体呈下跌趋势"
	default:
		text = "近5个交易日整体呈震荡态势"
	}

	s := ta.Summarize(candles)
	if !math.IsNaN(s.MA20) {
		if s.MA5 > s.MA20 {
			text += "，5日均线位于20日均线上方，短期偏多"
		} else {
			text += "，5日均线位于20日均线下方，短期偏空"
		}
	}
	if !math.IsNaN(s.RSI14) {
		switch {
		case s.RSI14 >= 70:
			text += "；RSI进入超买区间，注意回调风险"
		case s.RSI14 <= 30:
			text += "；RSI进入超卖区间，关注反弹机会"
		}
	}
	return text
}
