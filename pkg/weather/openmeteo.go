// Package weather fetches current conditions from the Open-Meteo
// forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"whodunnit/pkg/model"
	"whodunnit/pkg/request"
)

// Client handles Open-Meteo API interactions.
type Client struct {
	request *request.Client
	baseURL string
}

// NewClient creates a new Open-Meteo client.
func NewClient(r *request.Client, baseURL string) *Client {
	return &Client{request: r, baseURL: baseURL}
}

// Fetch returns the current weather snapshot for a coordinate.
// Responses are never cached here; freshness is the caller's policy.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	u, err := url.Parse(c.baseURL + "/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("invalid open-meteo url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}

	var resp struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
		Daily *struct {
			Sunrise []string `json:"sunrise"`
			Sunset  []string `json:"sunset"`
		} `json:"daily"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	w := &model.Weather{}
	if resp.CurrentWeather != nil {
		w.TempC = resp.CurrentWeather.Temperature
		w.Condition = strconv.Itoa(resp.CurrentWeather.WeatherCode)
	}
	if resp.Daily != nil {
		if len(resp.Daily.Sunrise) > 0 {
			w.Sunrise = resp.Daily.Sunrise[0]
		}
		if len(resp.Daily.Sunset) > 0 {
			w.Sunset = resp.Daily.Sunset[0]
		}
	}
	return w, nil
}
