package ytextract

import "encoding/json"

// ParseVideoList walks the ytInitialData JSON blob of a channel's
// "Live" tab and collects the video ids of every still-live
// broadcast. A video counts as still live if its renderer has no
// publishedTimeText field — YouTube only stamps that field on videos
// that have finished broadcasting.
func ParseVideoList(raw string) (map[string]struct{}, error) {
	var outer struct {
		Contents struct {
			TwoColumnBrowseResultsRenderer struct {
				Tabs []struct {
					TabRenderer struct {
						Content struct {
							SectionListRenderer struct {
								Contents []struct {
									ItemSectionRenderer struct {
										Contents []struct {
											ShelfRenderer *struct {
												Content json.RawMessage `json:"content"`
											} `json:"shelfRenderer"`
										} `json:"contents"`
									} `json:"itemSectionRenderer"`
								} `json:"contents"`
							} `json:"sectionListRenderer"`
						} `json:"content"`
					} `json:"tabRenderer"`
				} `json:"tabs"`
			} `json:"twoColumnBrowseResultsRenderer"`
		} `json:"contents"`
	}

	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return nil, err
	}

	streams := make(map[string]struct{})
	for _, tab := range outer.Contents.TwoColumnBrowseResultsRenderer.Tabs {
		for _, section := range tab.TabRenderer.Content.SectionListRenderer.Contents {
			for _, item := range section.ItemSectionRenderer.Contents {
				if item.ShelfRenderer == nil {
					continue
				}
				for id := range videoIDsFromShelfContent(item.ShelfRenderer.Content) {
					streams[id] = struct{}{}
				}
			}
		}
	}
	return streams, nil
}

type videoRenderer struct {
	VideoID           string          `json:"videoId"`
	PublishedTimeText json.RawMessage `json:"publishedTimeText"`
}

// shelfRenderer.content is one of three renderer kinds, keyed by name
// rather than a discriminant field: gridRenderer and
// horizontalListRenderer both hold gridVideoRenderer items,
// verticalListRenderer holds videoRenderer items.
func videoIDsFromShelfContent(raw json.RawMessage) map[string]struct{} {
	ids := make(map[string]struct{})

	var grid struct {
		GridRenderer struct {
			Items []struct {
				GridVideoRenderer videoRenderer `json:"gridVideoRenderer"`
			} `json:"items"`
		} `json:"gridRenderer"`
		HorizontalListRenderer struct {
			Items []struct {
				GridVideoRenderer videoRenderer `json:"gridVideoRenderer"`
			} `json:"items"`
		} `json:"horizontalListRenderer"`
	}
	var vertical struct {
		VerticalListRenderer struct {
			Items []struct {
				VideoRenderer videoRenderer `json:"videoRenderer"`
			} `json:"items"`
		} `json:"verticalListRenderer"`
	}

	if json.Unmarshal(raw, &grid) == nil {
		for _, item := range grid.GridRenderer.Items {
			if item.GridVideoRenderer.VideoID != "" && item.GridVideoRenderer.PublishedTimeText == nil {
				ids[item.GridVideoRenderer.VideoID] = struct{}{}
			}
		}
		for _, item := range grid.HorizontalListRenderer.Items {
			if item.GridVideoRenderer.VideoID != "" && item.GridVideoRenderer.PublishedTimeText == nil {
				ids[item.GridVideoRenderer.VideoID] = struct{}{}
			}
		}
	}
	if json.Unmarshal(raw, &vertical) == nil {
		for _, item := range vertical.VerticalListRenderer.Items {
			if item.VideoRenderer.VideoID != "" && item.VideoRenderer.PublishedTimeText == nil {
				ids[item.VideoRenderer.VideoID] = struct{}{}
			}
		}
	}
	return ids
}
