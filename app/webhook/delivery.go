package webhook

import (
	"io"
	"net/http"
	"net/url"
	"sync"
)

const maxBodyBytes = 1 << 20

// Delivery is one inbound gateway request. The body is read at most once and
// every derived result, failures included, is kept for the life of the
// request. A Delivery must not outlive or be shared across requests.
type Delivery struct {
	req *http.Request

	bodyOnce sync.Once
	body     []byte
	bodyErr  error

	formOnce sync.Once
	form     url.Values
	formErr  error

	eventOnce sync.Once
	event     *Event
	eventErr  error

	authOnce  sync.Once
	authEvent *Event
	authErr   error
}

func NewDelivery(req *http.Request) *Delivery {
	return &Delivery{req: req}
}

func (d *Delivery) Request() *http.Request {
	return d.req
}

func (d *Delivery) Header(name string) (string, bool) {
	values := d.req.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (d *Delivery) Body() ([]byte, error) {
	d.bodyOnce.Do(func() {
		if d.req.Body == nil {
			return
		}
		defer d.req.Body.Close()
		d.body, d.bodyErr = io.ReadAll(io.LimitReader(d.req.Body, maxBodyBytes))
	})
	return d.body, d.bodyErr
}

// Form merges url-encoded body fields with query parameters, body first.
func (d *Delivery) Form() (url.Values, error) {
	d.formOnce.Do(func() {
		values := url.Values{}
		body, err := d.Body()
		if err != nil {
			d.formErr = err
			return
		}
		if len(body) > 0 {
			parsed, err := url.ParseQuery(string(body))
			if err != nil {
				d.formErr = err
				return
			}
			values = parsed
		}
		for k, vs := range d.req.URL.Query() {
			if _, ok := values[k]; !ok {
				values[k] = vs
			}
		}
		d.form = values
	})
	return d.form, d.formErr
}

func (d *Delivery) Event() (*Event, error) {
	d.eventOnce.Do(func() {
		body, err := d.Body()
		if err != nil {
			d.eventErr = ErrParseFailed
			return
		}
		d.event, d.eventErr = Parse(body)
	})
	return d.event, d.eventErr
}

// AuthenticatedEvent checks the Authorization header against token before
// the body is parsed. The first call decides the result for the request.
func (d *Delivery) AuthenticatedEvent(token string) (*Event, error) {
	d.authOnce.Do(func() {
		header, present := d.Header("Authorization")
		if !Authenticate(header, present, token) {
			d.authErr = ErrUnauthorized
			return
		}
		d.authEvent, d.authErr = d.Event()
	})
	return d.authEvent, d.authErr
}
