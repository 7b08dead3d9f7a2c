package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"disaster-bot/internal/llm"
	"disaster-bot/internal/metrics"
	"disaster-bot/internal/models"
)

const (
	maxHistoryTurns = 8
	chatMaxTokens   = 250
	chatTemperature = 0.6
	chatTopP        = 0.9

	maxLineLength = 120
	isoMillis     = "2006-01-02T15:04:05.000Z07:00"

	indiaEmergencyBlock = "\n\n**India Emergency**\n" +
		"Emergency: 112 | Police: 100\n" +
		"Fire: 101 | Ambulance: 108"
)

const baseSystemPrompt = `You are a helpful disaster management assistant. Provide clear, practical safety advice.

RESPONSE GUIDELINES:
- Be conversational but direct
- Default to 2-3 key safety tips unless asked for detailed steps
- Use simple, everyday language
- Format responses naturally - avoid excessive numbering
- Keep each point concise (under 100 characters)
- Only use bullet points or numbers when specifically requested
- Focus on immediate, actionable advice

FORMATTING RULES:
- For general queries: Write 2-3 sentences naturally
- For "what to do" queries: Use brief bullet points (•)
- For step-by-step requests: Use numbers (1-5 max)
- Never use colons after headers
- Avoid repetitive phrases like "here are some steps"`

var (
	stepsPattern     = regexp.MustCompile(`(?i)\b(step|steps|detailed|guide|instructions|procedure)\b`)
	whatToDoPattern  = regexp.MustCompile(`(?i)\bwhat\s+to\s+do\b`)
	timeInfoPattern  = regexp.MustCompile(`(?i)\b(current time|what(?:'s| is) the time|time now|date|today|day)\b`)
	helplinePattern  = regexp.MustCompile(`(?i)\b(helpline|emergency number|contact|call|ambulance|police|fire|number)\b`)
	emergencyPattern = regexp.MustCompile(`(?i)\b(emergency|help|urgent|danger|crisis|sos|trapped|injured|accident)\b`)
	indiaPattern     = regexp.MustCompile(`(?i)\b(india|indian)\b`)
	imageURLPattern  = regexp.MustCompile(`(?i)https?://\S+\.(?:png|jpg|jpeg|gif|webp)`)

	verbosePhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)here are (?:some )?(?:steps|tips|things) (?:you can|to) (?:take|do|follow)?:?\s*`),
		regexp.MustCompile(`(?i)if you (?:are )?(?:facing|experiencing|in) .+, (?:here are|follow these|consider these):?\s*`),
		regexp.MustCompile(`(?i)to stay safe (?:during|from) .+:?\s*`),
		regexp.MustCompile(`(?i)remember,?\s*`),
		regexp.MustCompile(`(?i)it'?s important to\s*`),
	}
	leadingNumber = regexp.MustCompile(`^\d+\.\s*`)
	leadingBullet = regexp.MustCompile(`^[-*•]\s*`)
)

// ResponseCache stores raw completions keyed by conversation fingerprint.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*llm.Completion, bool, error)
	Set(ctx context.Context, key string, c *llm.Completion) error
}

type ChatService struct {
	provider llm.Provider
	model    string
	cache    ResponseCache
	now      func() time.Time
}

// NewChatService builds the chatbot. cache may be nil.
func NewChatService(provider llm.Provider, model string, cache ResponseCache) *ChatService {
	return &ChatService{
		provider: provider,
		model:    model,
		cache:    cache,
		now:      time.Now,
	}
}

type intents struct {
	steps     bool
	whatToDo  bool
	timeInfo  bool
	helpline  bool
	emergency bool
	india     bool
}

func detectIntents(text string) intents {
	return intents{
		steps:     stepsPattern.MatchString(text),
		whatToDo:  whatToDoPattern.MatchString(text),
		timeInfo:  timeInfoPattern.MatchString(text),
		helpline:  helplinePattern.MatchString(text),
		emergency: emergencyPattern.MatchString(text),
		india:     indiaPattern.MatchString(text),
	}
}

// Reply answers a chat message. Provider failures never surface as errors:
// they produce a keyword-based fallback answer flagged with Fallback.
func (s *ChatService) Reply(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &ValidationError{Fields: map[string]string{"text": "Text cannot be empty"}}
	}

	ct := currentTime(s.now())
	in := detectIntents(req.Text)

	userMessage := req.Text
	if in.timeInfo {
		userMessage += fmt.Sprintf("\n[Current time: %s, %s]", ct.Time, ct.Date)
	}

	history := make([]models.HistoryItem, 0, len(req.History)+len(req.ConversationHistory))
	history = append(history, req.History...)
	history = append(history, req.ConversationHistory...)

	messages := []llm.Message{{Role: llm.RoleSystem, Content: buildSystemPrompt(req.Location)}}
	messages = append(messages, normalizeHistory(history)...)
	messages = append(messages, userTurn(userMessage))

	reply := &models.ChatReply{
		UserMessage:      req.Text,
		LocationReceived: req.Location != nil,
		CurrentTime:      ct,
		Timestamp:        ct.Timestamp,
		ModelRequested:   s.model,
		BaseURL:          s.provider.BaseURL(),
	}

	// Time-stamped prompts are never cached.
	completion, cached, err := s.complete(ctx, messages, !in.timeInfo)
	var bot string
	if err == nil {
		if strings.TrimSpace(completion.Content) == "" {
			err = errors.New("no response from AI")
		} else if bot = cleanupResponse(completion.Content, in.steps || in.whatToDo); bot == "" {
			err = errors.New("AI response was empty after cleanup")
		}
	}

	if err != nil {
		log.Printf("[Chat] AI API error: %v", err)
		metrics.ChatReplies.WithLabelValues("fallback").Inc()
		reply.BotMessage = fallbackResponse(req.Text, req.Location, ct, in.timeInfo)
		reply.Response = reply.BotMessage
		reply.Fallback = true
		reply.Error = err.Error()
		return reply, nil
	}

	log.Printf("[Chat] BaseURL=%s RequestedModel=%s ResolvedModel=%s cached=%t",
		reply.BaseURL, s.model, completion.Model, cached)
	if cached {
		metrics.ChatReplies.WithLabelValues("cached").Inc()
	} else {
		metrics.ChatReplies.WithLabelValues("llm").Inc()
	}

	if in.timeInfo {
		bot = fmt.Sprintf("Current time: %s, %s\n\n%s", ct.Time, ct.Date, bot)
	}
	if (in.emergency || in.helpline) && isIndia(req.Location, in) {
		bot += indiaEmergencyBlock
	}

	resolved := completion.Model
	reply.BotMessage = bot
	reply.Response = bot
	reply.ModelResolved = &resolved
	reply.Cached = cached
	return reply, nil
}

func (s *ChatService) complete(ctx context.Context, messages []llm.Message, cacheable bool) (*llm.Completion, bool, error) {
	var key string
	if cacheable && s.cache != nil {
		key = cacheKey(s.provider.BaseURL(), s.model, messages)
		c, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.ChatCacheLookups.WithLabelValues("error").Inc()
			log.Printf("[Chat] cache lookup failed: %v", err)
		case ok:
			metrics.ChatCacheLookups.WithLabelValues("hit").Inc()
			return c, true, nil
		default:
			metrics.ChatCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	c, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		TopP:        chatTopP,
	})
	if err != nil {
		return nil, false, err
	}

	if key != "" && strings.TrimSpace(c.Content) != "" {
		if err := s.cache.Set(ctx, key, c); err != nil {
			log.Printf("[Chat] cache store failed: %v", err)
		}
	}
	return c, false, nil
}

func cacheKey(baseURL, model string, messages []llm.Message) string {
	h := sha256.New()
	h.Write([]byte(baseURL))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	data, _ := json.Marshal(messages)
	h.Write(data)
	return "chat:reply:" + hex.EncodeToString(h.Sum(nil))
}

func currentTime(now time.Time) models.CurrentTime {
	return models.CurrentTime{
		Date:      now.Format("Monday, January 2, 2006"),
		Time:      now.Format("03:04 PM MST"),
		Timestamp: now.UTC().Format(isoMillis),
		DayOfWeek: int(now.Weekday()),
		Hour:      now.Hour(),
		Timezone:  now.Location().String(),
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func buildSystemPrompt(loc *models.UserLocation) string {
	if loc == nil {
		return baseSystemPrompt
	}

	var where string
	switch {
	case loc.City != "":
		where = loc.City
	case loc.Address != "":
		where = loc.Address
	case loc.Latitude != nil && loc.Longitude != nil:
		where = formatCoord(*loc.Latitude) + ", " + formatCoord(*loc.Longitude)
	}

	country := loc.Country
	if where == "" {
		where, country = country, ""
	}
	if where == "" {
		return baseSystemPrompt
	}

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n\nUser location: ")
	b.WriteString(where)
	if country != "" {
		b.WriteString(", ")
		b.WriteString(country)
	}
	b.WriteString("\nProvide location-aware advice when relevant.")
	return b.String()
}

// normalizeHistory keeps the last turns, maps both {role, content} and
// {sender, text} shapes onto user/assistant, and drops blank turns.
func normalizeHistory(items []models.HistoryItem) []llm.Message {
	if len(items) > maxHistoryTurns {
		items = items[len(items)-maxHistoryTurns:]
	}

	out := make([]llm.Message, 0, len(items))
	for _, m := range items {
		role := llm.RoleUser
		if m.Role != nil && *m.Role != "" {
			if *m.Role == llm.RoleAssistant {
				role = llm.RoleAssistant
			}
		} else if m.Sender != nil && *m.Sender == "bot" {
			role = llm.RoleAssistant
		}

		var content string
		switch {
		case m.Content != nil:
			content = *m.Content
		case m.Text != nil:
			content = *m.Text
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		out = append(out, llm.Message{Role: role, Content: content})
	}
	return out
}

// userTurn attaches a pasted image link as a vision part.
func userTurn(text string) llm.Message {
	img := imageURLPattern.FindString(text)
	if img == "" {
		return llm.Message{Role: llm.RoleUser, Content: text}
	}
	return llm.Message{Role: llm.RoleUser, Parts: []llm.ContentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &llm.ImageURL{URL: img}},
	}}
}

func isIndia(loc *models.UserLocation, in intents) bool {
	if loc != nil && strings.Contains(strings.ToLower(loc.Country), "india") {
		return true
	}
	return in.india
}

// cleanupResponse trims filler, caps the answer at 3 lines (5 for step
// requests) of at most 120 characters, and formats as bullets or numbers.
func cleanupResponse(response string, wantsSteps bool) string {
	for _, re := range verbosePhrases {
		response = re.ReplaceAllString(response, "")
	}

	var lines []string
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if !wantsSteps {
		for i, line := range lines {
			lines[i] = leadingNumber.ReplaceAllString(line, "• ")
		}
	}

	maxLines := 3
	if wantsSteps {
		maxLines = 5
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	for i, line := range lines {
		lines[i] = truncateLine(line)
	}

	for i, line := range lines {
		if wantsSteps {
			line = leadingNumber.ReplaceAllString(line, "")
			lines[i] = fmt.Sprintf("%d. %s", i+1, leadingBullet.ReplaceAllString(line, ""))
		} else if !strings.HasPrefix(line, "•") {
			lines[i] = "• " + line
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(line string) string {
	if utf8.RuneCountInString(line) <= maxLineLength {
		return line
	}
	head := string([]rune(line)[:maxLineLength-3])
	if bp := strings.LastIndex(head, " "); bp > 0 {
		head = head[:bp]
	}
	return head + "..."
}

// fallbackResponse answers from canned safety tips when the LLM is down.
func fallbackResponse(text string, loc *models.UserLocation, ct models.CurrentTime, wantsTime bool) string {
	query := strings.ToLower(text)
	var b strings.Builder

	if wantsTime {
		fmt.Fprintf(&b, "📅 %s, %s\n\n", ct.Time, ct.Date)
	}

	switch {
	case strings.Contains(query, "earthquake") || strings.Contains(query, "shaking"):
		b.WriteString("**Earthquake Safety**\n" +
			"• Drop, cover, and hold immediately\n" +
			"• Stay under sturdy furniture\n" +
			"• Avoid windows and exterior walls")
	case strings.Contains(query, "fire"):
		b.WriteString("**Fire Safety**\n" +
			"• Get low and crawl to exit\n" +
			"• Feel doors before opening\n" +
			"• Never use elevators")
	case strings.Contains(query, "flood"):
		b.WriteString("**Flood Safety**\n" +
			"• Move to higher ground immediately\n" +
			"• Avoid walking in moving water\n" +
			"• Turn off utilities if safe")
	case strings.Contains(query, "tsunami"):
		b.WriteString("**Tsunami Alert**\n" +
			"• Move inland or to high ground NOW\n" +
			"• Follow evacuation routes\n" +
			"• Stay away until all-clear given")
	case strings.Contains(query, "heavy rain") || strings.Contains(query, "rainfall") || strings.Contains(query, "monsoon"):
		b.WriteString("**Heavy Rain Safety**\n" +
			"• Stay indoors; avoid low-lying areas\n" +
			"• Do not drive through water; turn around\n" +
			"• Keep phone charged; unplug if water enters")
	case strings.Contains(query, "wind") || strings.Contains(query, "storm") || strings.Contains(query, "cyclone"):
		b.WriteString("**Strong Wind Safety**\n" +
			"• Move to interior room away from windows\n" +
			"• Secure loose outdoor items\n" +
			"• Stay indoors until winds subside")
	default:
		b.WriteString("I'm here to help with emergency guidance. " +
			"Tell me what's happening and I'll provide safety advice.")
	}

	if loc != nil && loc.Address != "" {
		fmt.Fprintf(&b, "\n\n📍 Location: %s", loc.Address)
	}
	return b.String()
}
