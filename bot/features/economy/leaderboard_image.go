package economy

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/utils"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

type column struct {
	header string
	x      float64
	rgb    [3]float64
}

// LeaderboardImage renders coin leaderboards as PNG scoreboards
type LeaderboardImage struct {
	width     int
	minHeight int
	padding   float64
	rowHeight float64
	title     string

	// Font faces cache glyphs and are not safe for concurrent use
	mu        sync.Mutex
	body      font.Face
	bold      font.Face
	titleFont font.Face
}

// NewLeaderboardImage creates a renderer. title is drawn above the table.
func NewLeaderboardImage(title string) (*LeaderboardImage, error) {
	body, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load body font: %w", err)
	}
	bold, err := loadFont(gobold.TTF, 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank font: %w", err)
	}
	titleFace, err := loadFont(gobold.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}

	return &LeaderboardImage{
		width:     360,
		minHeight: 160,
		padding:   15,
		rowHeight: 26,
		title:     title,
		body:      body,
		bold:      bold,
		titleFont: titleFace,
	}, nil
}

// Render draws the entries. names maps Discord IDs to display names.
func (l *LeaderboardImage) Render(entries []*entities.LeaderboardEntry, names map[int64]string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(entries),
		}).Debug("Leaderboard image rendered")
	}()

	columns := []column{
		{header: "#", x: l.padding, rgb: [3]float64{0.85, 0.85, 0.9}},
		{header: "Member", x: l.padding + 24, rgb: [3]float64{1, 1, 1}},
		{header: "Balance", x: l.padding + 200, rgb: [3]float64{0.85, 1, 0.85}},
		{header: "Streak", x: l.padding + 280, rgb: [3]float64{1, 0.9, 0.7}},
	}

	// title + header + rows + bottom padding
	height := 30 + 30 + int(float64(max(len(entries), 1))*l.rowHeight) + 20
	height = max(height, l.minHeight)

	dc := gg.NewContext(l.width, height)
	l.drawBackground(dc, height)

	dc.SetFontFace(l.titleFont)
	dc.SetRGB(1, 0.84, 0)
	dc.DrawStringAnchored(l.title, float64(l.width)/2, 20, 0.5, 0.5)

	dc.SetFontFace(l.body)
	y := 50.0
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(l.width), 20)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	for _, col := range columns {
		drawSharpText(dc, col.header, col.x, y)
	}

	y += 28
	if len(entries) == 0 {
		dc.SetRGB(0.7, 0.7, 0.7)
		dc.DrawStringAnchored("Nobody has any coins yet", float64(l.width)/2, y, 0.5, 0.5)
	}

	for i, entry := range entries {
		l.drawRowBackground(dc, i, y)

		if i < 3 {
			r, g, b := podiumColor(i)
			dc.SetRGB(r, g, b)
			dc.DrawCircle(l.padding+4, y-4, 6)
			dc.Fill()

			dc.SetRGB(0, 0, 0)
			dc.SetFontFace(l.bold)
			dc.DrawStringAnchored(fmt.Sprintf("%d", entry.Rank), l.padding+4, y-5, 0.5, 0.4)
			dc.SetFontFace(l.body)
		} else {
			setRGB(dc, columns[0].rgb)
			drawSharpText(dc, fmt.Sprintf("%d", entry.Rank), columns[0].x, y)
		}

		setRGB(dc, columns[1].rgb)
		drawSharpText(dc, displayName(names, entry.DiscordID), columns[1].x, y)

		setRGB(dc, columns[2].rgb)
		drawSharpText(dc, utils.FormatShortNotation(entry.Balance), columns[2].x, y)

		setRGB(dc, columns[3].rgb)
		drawSharpText(dc, fmt.Sprintf("%dd", entry.Streak), columns[3].x, y)

		y += l.rowHeight
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (l *LeaderboardImage) drawBackground(dc *gg.Context, height int) {
	grad := gg.NewLinearGradient(0, 0, 0, float64(height))
	grad.AddColorStop(0, rgb(0.02, 0.02, 0.05))
	grad.AddColorStop(1, rgb(0.05, 0.07, 0.15))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(l.width), float64(height))
	dc.Fill()
}

func (l *LeaderboardImage) drawRowBackground(dc *gg.Context, index int, y float64) {
	alpha := 0.02
	r, g, b := 0.5, 0.5, 0.6
	switch index {
	case 0:
		r, g, b, alpha = 1, 0.84, 0, 0.1
	case 1:
		r, g, b, alpha = 0.8, 0.8, 0.8, 0.08
	case 2:
		r, g, b, alpha = 0.8, 0.5, 0.2, 0.06
	}
	dc.SetRGBA(r, g, b, alpha)
	dc.DrawRectangle(0, y-15, float64(l.width), l.rowHeight)
	dc.Fill()
}

func podiumColor(index int) (float64, float64, float64) {
	switch index {
	case 0:
		return 1, 0.84, 0
	case 1:
		return 0.75, 0.75, 0.75
	default:
		return 0.8, 0.5, 0.2
	}
}

func displayName(names map[int64]string, discordID int64) string {
	name, ok := names[discordID]
	if !ok || name == "" {
		name = fmt.Sprintf("user %d", discordID%10000)
	}
	runes := []rune(name)
	if len(runes) > 18 {
		name = string(runes[:17]) + "…"
	}
	return name
}

func setRGB(dc *gg.Context, c [3]float64) {
	dc.SetRGB(c[0], c[1], c[2])
}

// drawSharpText draws text over a faint offset shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()
	dc.DrawString(text, x, y)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}

func rgb(r, g, b float64) color.Color {
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
