package recordsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Dataset column names on the open-data portal. The SODA API addresses
// columns by these identifiers in $where and $order expressions.
const (
	colRollYear    = "closed_roll_year"
	colParcel      = "parcel_number"
	colBlock       = "block"
	colLot         = "lot"
	colAddress     = "property_location"
	colUseCode     = "use_code"
	colSaleDate    = "sale_date"
	colLatitude    = "latitude"
	colLongitude   = "longitude"
	colGeom        = "the_geom"
	sodaDateLayout = "2006-01-02T15:04:05"
)

// SODAClient queries a Socrata-style open-data dataset over HTTPS. It is the
// production Source; transport failures are returned verbatim.
type SODAClient struct {
	baseURL   string
	datasetID string
	appToken  string
	http      *http.Client
}

func NewSODAClient(baseURL, datasetID, appToken string) *SODAClient {
	return &SODAClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		datasetID: datasetID,
		appToken:  appToken,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (c *SODAClient) Query(ctx context.Context, q Query) ([]Row, error) {
	params := url.Values{}
	if where := buildWhere(q.Filter); where != "" {
		params.Set("$where", where)
	}
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		params.Set("$order", orderColumn(q.Order.Field)+" "+dir)
	}
	if q.Limit > 0 {
		params.Set("$limit", strconv.Itoa(q.Limit))
	}

	endpoint := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, c.datasetID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("record feed query failed status=%d body=%s", resp.StatusCode, truncate(string(blob), 300))
	}

	var rows []Row
	if err := json.Unmarshal(blob, &rows); err != nil {
		return nil, fmt.Errorf("record feed response decode: %w", err)
	}
	return rows, nil
}

// buildWhere renders the structured filter as a SODA $where expression.
func buildWhere(f Filter) string {
	var clauses []string
	if f.RollYear != "" {
		clauses = append(clauses, fmt.Sprintf("%s='%s'", colRollYear, sodaEscape(f.RollYear)))
	}
	if len(f.UseCodes) > 0 {
		quoted := make([]string, len(f.UseCodes))
		for i, u := range f.UseCodes {
			quoted[i] = "'" + sodaEscape(u) + "'"
		}
		clauses = append(clauses, fmt.Sprintf("%s in(%s)", colUseCode, strings.Join(quoted, ",")))
	}
	for _, term := range f.AddressContains {
		clauses = append(clauses, fmt.Sprintf("upper(%s) like '%%%s%%'", colAddress, sodaEscape(strings.ToUpper(term))))
	}
	if f.Block != "" {
		clauses = append(clauses, fmt.Sprintf("%s='%s'", colBlock, sodaEscape(f.Block)))
	}
	if f.Lot != "" {
		clauses = append(clauses, fmt.Sprintf("%s='%s'", colLot, sodaEscape(f.Lot)))
	}
	if f.Within != nil {
		clauses = append(clauses, fmt.Sprintf("within_circle(%s,%f,%f,%f)",
			colGeom, f.Within.Lat, f.Within.Lon, MilesToMeters(f.Within.RadiusMiles)))
	}
	if f.SoldAfter != nil {
		clauses = append(clauses, fmt.Sprintf("%s>'%s'", colSaleDate, f.SoldAfter.Format(sodaDateLayout)))
	}
	if f.ExcludeParcel != "" {
		clauses = append(clauses, fmt.Sprintf("%s!='%s'", colParcel, sodaEscape(f.ExcludeParcel)))
	}
	return strings.Join(clauses, " AND ")
}

func orderColumn(field string) string {
	switch field {
	case FieldSaleDate:
		return colSaleDate
	case FieldAddress:
		return colAddress
	default:
		return colParcel
	}
}

// sodaEscape doubles single quotes per SoQL string-literal rules.
func sodaEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
