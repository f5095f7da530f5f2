package catalog

import (
	"fmt"
	"strconv"

	"github.com/roomscout/visearch/internal/domain"
)

func itemToHash(item domain.Item) map[string]string {
	return map[string]string{
		"id":          item.ID,
		"title":       item.Title,
		"description": item.Description,
		"category":    item.Category,
		"type":        item.Type,
		"price":       strconv.FormatFloat(item.Price, 'f', -1, 64),
		"width_cm":    strconv.FormatFloat(item.WidthCM, 'f', -1, 64),
		"depth_cm":    strconv.FormatFloat(item.DepthCM, 'f', -1, 64),
		"height_cm":   strconv.FormatFloat(item.HeightCM, 'f', -1, 64),
	}
}

func itemFromHash(h map[string]string) (domain.Item, error) {
	if h["id"] == "" {
		return domain.Item{}, fmt.Errorf("missing id field")
	}

	item := domain.Item{
		ID:          h["id"],
		Title:       h["title"],
		Description: h["description"],
		Category:    h["category"],
		Type:        h["type"],
	}

	var err error
	if item.Price, err = parseFloat(h, "price"); err != nil {
		return domain.Item{}, err
	}
	if item.WidthCM, err = parseFloat(h, "width_cm"); err != nil {
		return domain.Item{}, err
	}
	if item.DepthCM, err = parseFloat(h, "depth_cm"); err != nil {
		return domain.Item{}, err
	}
	if item.HeightCM, err = parseFloat(h, "height_cm"); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func parseFloat(h map[string]string, field string) (float64, error) {
	s, ok := h[field]
	if !ok || s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
