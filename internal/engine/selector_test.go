package engine

import "testing"

func selectorFixture(cfg SelectorConfig, nItemsPerAxis int) (*Selector, []Axis) {
	axes := []Axis{{ID: "ax1", Code: "harm"}, {ID: "ax2", Code: "fair"}}
	var items []*DilemmaItem
	for _, axis := range axes {
		for i := 0; i < nItemsPerAxis; i++ {
			items = append(items, &DilemmaItem{ID: axis.ID + "-i" + string(rune('a'+i)), AxisID: axis.ID, PressureLevel: 0.5})
		}
	}
	return NewSelector(axes, items, nil, cfg, "seed-1"), axes
}

func TestSelector_GetNext_ReturnsItemFromFirstUnstoppedAxis(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	sel, axes := selectorFixture(cfg, cfg.MaxItemsPerAxis+2)
	item, axis, err := sel.GetNext(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || axis == nil {
		t.Fatalf("expected an item and axis on a fresh selector")
	}
	if axis.ID != axes[0].ID {
		t.Errorf("expected the first axis to be offered first, got %s", axis.ID)
	}
}

func TestSelector_ShouldStopAxis_StopsAtMaxRegardlessOfSE(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	sel, _ := selectorFixture(cfg, cfg.MaxItemsPerAxis+2)
	var responses []Response
	for i := 0; i < cfg.MaxItemsPerAxis; i++ {
		responses = append(responses, Response{
			ItemID: "ax1-i" + string(rune('a'+i)), AxisID: "ax1", GlobalIndex: i,
			Permissibility: 10 + (i%2)*70, // deliberately noisy so SE stays high
		})
	}
	c := sel.buildCursor(responses)
	if !sel.ShouldStopAxis("ax1", responses, c) {
		t.Errorf("expected the axis to stop once it hits max_items_per_axis regardless of SE")
	}
}

func TestSelector_ShouldStopAxis_DoesNotStopBeforeMinItems(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	sel, _ := selectorFixture(cfg, cfg.MaxItemsPerAxis+2)
	responses := []Response{{ItemID: "ax1-ia", AxisID: "ax1", GlobalIndex: 0, Permissibility: 50}}
	c := sel.buildCursor(responses)
	if sel.ShouldStopAxis("ax1", responses, c) {
		t.Errorf("expected the axis not to stop before min_items_per_axis")
	}
}

func TestSelector_IsComplete_FalseUntilEveryAxisStops(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	sel, _ := selectorFixture(cfg, cfg.MaxItemsPerAxis+2)
	var responses []Response
	for i := 0; i < cfg.MaxItemsPerAxis; i++ {
		responses = append(responses, Response{ItemID: "ax1-i" + string(rune('a'+i)), AxisID: "ax1", GlobalIndex: i, Permissibility: 50})
	}
	if sel.IsComplete(responses) {
		t.Errorf("expected incomplete while the second axis has zero responses")
	}
}

func TestSelector_IsComplete_TrueWhenBothAxesHitMax(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	sel, _ := selectorFixture(cfg, cfg.MaxItemsPerAxis+2)
	var responses []Response
	idx := 0
	for _, axisID := range []string{"ax1", "ax2"} {
		for i := 0; i < cfg.MaxItemsPerAxis; i++ {
			responses = append(responses, Response{ItemID: axisID + "-i" + string(rune('a'+i)), AxisID: axisID, GlobalIndex: idx, Permissibility: 50})
			idx++
		}
	}
	if !sel.IsComplete(responses) {
		t.Errorf("expected completion once every axis has hit max_items_per_axis")
	}
}

func TestSelector_GetNext_ExhaustedBankReturnsNilWithoutError(t *testing.T) {
	cfg := DefaultSelectorConfigV2()
	cfg.MinItemsPerAxis = 1
	cfg.MaxItemsPerAxis = 50 // larger than the fixture's item pool
	axes := []Axis{{ID: "ax1", Code: "harm"}}
	items := []*DilemmaItem{{ID: "only-item", AxisID: "ax1", PressureLevel: 0.5}}
	sel := NewSelector(axes, items, nil, cfg, "seed-1")

	responses := []Response{{ItemID: "only-item", AxisID: "ax1", GlobalIndex: 0, Permissibility: 50}}
	item, axis, err := sel.GetNext(responses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil || axis != nil {
		t.Errorf("expected nil item/axis once the axis's item bank is exhausted, got item=%v axis=%v", item, axis)
	}
}
