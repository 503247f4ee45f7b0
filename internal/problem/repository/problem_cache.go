package repository

import (
	"encoding/json"

	"campusdesk/internal/problem/model"
)

// cachedProblemView keeps the fields ProblemView hides from API JSON.
type cachedProblemView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Status      model.Status `json:"status"`
	Response    *string      `json:"response,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   int64        `json:"created_at"`
	UpdatedAt   int64        `json:"updated_at"`
	Owner       model.Owner  `json:"owner"`
}

func problemViewKey(id string) string {
	return problemViewKeyPrefix + id
}

func marshalProblemView(view *model.ProblemView) string {
	if view == nil {
		return ""
	}
	payload, err := json.Marshal(cachedProblemView{
		ID:          view.ID,
		Title:       view.Title,
		Description: view.Description,
		Tags:        view.Tags,
		Status:      view.Status,
		Response:    view.Response,
		CreatedBy:   view.CreatedBy,
		CreatedAt:   toMicros(view.CreatedAt),
		UpdatedAt:   toMicros(view.UpdatedAt),
		Owner:       view.Owner,
	})
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalProblemView(data string) (*model.ProblemView, error) {
	if data == "" {
		return nil, nil
	}
	var cv cachedProblemView
	if err := json.Unmarshal([]byte(data), &cv); err != nil {
		return nil, err
	}
	tags := cv.Tags
	if tags == nil {
		tags = []string{}
	}
	return &model.ProblemView{
		Problem: model.Problem{
			ID:          cv.ID,
			Title:       cv.Title,
			Description: cv.Description,
			Tags:        tags,
			Status:      cv.Status,
			Response:    cv.Response,
			CreatedBy:   cv.CreatedBy,
			CreatedAt:   fromMicros(cv.CreatedAt),
			UpdatedAt:   fromMicros(cv.UpdatedAt),
		},
		Owner: cv.Owner,
	}, nil
}
