package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Session:
		o.printSession(v)
	case response.User:
		o.printUser(v)
	case []response.User:
		o.printUsers(v)
	case response.NameAvailable:
		o.printNameAvailable(v)
	case model.Listing:
		o.printListing(v)
	case response.Listings:
		o.printListings(v)
	case model.PlayerProfile:
		o.printProfile(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSession(s response.Session) {
	if !s.Authenticated || s.User == nil {
		fmt.Fprintln(o.w, "Not logged in")
		return
	}
	fmt.Fprintf(o.w, "Logged in as %s (%s)\n", s.User.Name, s.User.ID)
	if s.User.IsAdmin {
		fmt.Fprintln(o.w, "Role: admin")
	}
	if s.StartedAt != nil {
		fmt.Fprintf(o.w, "Since: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	}
}

func (o *Output) printUser(u response.User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.Name, u.ID)
	if u.IsAdmin {
		fmt.Fprintln(o.w, "Admin: yes")
	}
	if u.PlayerType != "" {
		fmt.Fprintf(o.w, "Player type: %s\n", u.PlayerType)
	}
	if len(u.Genres) > 0 {
		fmt.Fprintf(o.w, "Genres: %s\n", strings.Join(u.Genres, ", "))
	}
	if len(u.Games) > 0 {
		fmt.Fprintf(o.w, "Games: %s\n", strings.Join(u.Games, ", "))
	}
}

func (o *Output) printUsers(users []response.User) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADMIN")
	for _, u := range users {
		admin := ""
		if u.IsAdmin {
			admin = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, admin)
	}
	_ = tw.Flush()
}

func (o *Output) printNameAvailable(n response.NameAvailable) {
	if n.Available {
		fmt.Fprintf(o.w, "%q is available\n", n.Name)
	} else {
		fmt.Fprintf(o.w, "%q is taken\n", n.Name)
	}
}

func (o *Output) printListing(l model.Listing) {
	fmt.Fprintf(o.w, "Listing: %s (%s)\n", l.Title, l.ID)
	fmt.Fprintf(o.w, "Status: %s\n", l.Status)
	fmt.Fprintf(o.w, "Type: %s / %s\n", l.ListingType, l.Category)
	if l.Price != "" {
		fmt.Fprintf(o.w, "Price: %s\n", l.Price)
	}
	if l.Condition != "" {
		fmt.Fprintf(o.w, "Condition: %s\n", l.Condition)
	}
	location := l.Location
	if l.IsRemote {
		location = strings.TrimSpace(location + " (remote)")
	}
	fmt.Fprintf(o.w, "Location: %s\n", location)
	fmt.Fprintf(o.w, "Seller: %s (%s)\n", l.SellerName, l.SellerID)
	fmt.Fprintf(o.w, "Contact: %s\n", l.ContactInfo)
	fmt.Fprintf(o.w, "\n%s\n", l.ShortDescription)
	if l.DetailedDescription != "" {
		fmt.Fprintf(o.w, "\n%s\n", l.DetailedDescription)
	}
	if len(l.Tags) > 0 {
		fmt.Fprintf(o.w, "\nTags: %s\n", strings.Join(l.Tags, ", "))
	}
	for _, img := range l.Images {
		marker := ""
		if img.IsPrimary {
			marker = " [primary]"
		}
		fmt.Fprintf(o.w, "Image: %s%s\n", img.URL, marker)
	}
}

func (o *Output) printListings(ls response.Listings) {
	if ls.Count == 0 {
		fmt.Fprintln(o.w, "No listings")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tPRICE\tSELLER\tTITLE")
	for _, l := range ls.Listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.Status, l.ListingType, l.Price, l.SellerName, l.Title)
	}
	_ = tw.Flush()
	fmt.Fprintf(o.w, "%d listing(s)\n", ls.Count)
}

func (o *Output) printProfile(p model.PlayerProfile) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.UserID)
	fmt.Fprintf(o.w, "Role: %s\n", p.Role)
	if p.Email != "" {
		fmt.Fprintf(o.w, "Email: %s\n", p.Email)
	}
	if p.PlayerType != "" {
		fmt.Fprintf(o.w, "Player type: %s\n", p.PlayerType)
	}
	if len(p.Genres) > 0 {
		fmt.Fprintf(o.w, "Genres: %s\n", strings.Join(p.Genres, ", "))
	}
	if len(p.Games) > 0 {
		fmt.Fprintf(o.w, "Games: %s\n", strings.Join(p.Games, ", "))
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	ids := make([]string, 0, len(h.Documents))
	for id := range h.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		state := "ready"
		if !h.Documents[id] {
			state = "unavailable"
		}
		fmt.Fprintf(o.w, "  %s: %s\n", id, state)
	}
}
