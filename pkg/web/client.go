package web

import (
	"encoding/json"
	"errors"

	"github.com/appetiteclub/apt"
)

// DecodeData copies the data member of a service response into dest.
func DecodeData(resp *apt.SuccessResponse, dest interface{}) error {
	if resp == nil {
		return errors.New("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dest)
}
