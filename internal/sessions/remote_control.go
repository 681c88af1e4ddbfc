package sessions

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
)

// resolveControl resolves the target session (required) and the controlling
// session (optional), applying spec §4.G's "null check only" authorization.
func (m *Manager) resolveControl(op, targetSessionId, controllingSessionId string) (target, controlling *Session, err error) {
	target = m.registry.getById(targetSessionId)
	if target == nil {
		return nil, nil, sessionerrors.NotFoundError(op, fmt.Errorf("session %q not found", targetSessionId))
	}

	if controllingSessionId == "" {
		return target, nil, nil
	}

	controlling = m.registry.getById(controllingSessionId)
	if controlling == nil {
		return nil, nil, sessionerrors.NotFoundError(op, fmt.Errorf("controlling session %q not found", controllingSessionId))
	}
	// AssertCanControl: a future richer policy hook, currently only the
	// null checks above (spec §9 open question).
	return target, controlling, nil
}

// SendGeneralCommand forwards a named command to targetSessionId.
func (m *Manager) SendGeneralCommand(ctx context.Context, controllingSessionId, targetSessionId string, cmd GeneralCommand) error {
	const op = "SendGeneralCommand"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	target, controlling, err := m.resolveControl(op, targetSessionId, controllingSessionId)
	if err != nil {
		return err
	}
	if controlling != nil {
		cmd.ControllingUserId = controlling.UserId
	}
	ctrl := target.Controller()
	if ctrl == nil {
		return nil
	}
	return ctrl.SendGeneralCommand(ctx, cmd)
}

// SendPlaystateCommand forwards a playstate verb (play/pause/seek/...) to
// targetSessionId.
func (m *Manager) SendPlaystateCommand(ctx context.Context, controllingSessionId, targetSessionId string, cmd PlaystateCommand) error {
	const op = "SendPlaystateCommand"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	target, controlling, err := m.resolveControl(op, targetSessionId, controllingSessionId)
	if err != nil {
		return err
	}
	if controlling != nil {
		cmd.ControllingUserId = controlling.UserId
	}
	ctrl := target.Controller()
	if ctrl == nil {
		return nil
	}
	return ctrl.SendPlaystateCommand(ctx, cmd)
}

// SendMessageCommand is lowered to SendGeneralCommand with name
// DisplayMessage, per spec §4.G.
func (m *Manager) SendMessageCommand(ctx context.Context, controllingSessionId, targetSessionId, header, text string, timeoutMs int64) error {
	args := map[string]string{"Header": header, "Text": text}
	if timeoutMs > 0 {
		args["TimeoutMs"] = strconv.FormatInt(timeoutMs, 10)
	}
	return m.SendGeneralCommand(ctx, controllingSessionId, targetSessionId, GeneralCommand{
		Name:      "DisplayMessage",
		Arguments: args,
	})
}

// SendBrowseCommand is lowered to SendGeneralCommand with name
// DisplayContent, per spec §4.G.
func (m *Manager) SendBrowseCommand(ctx context.Context, controllingSessionId, targetSessionId, itemId, itemName, itemType string) error {
	return m.SendGeneralCommand(ctx, controllingSessionId, targetSessionId, GeneralCommand{
		Name: "DisplayContent",
		Arguments: map[string]string{
			"ItemId":   itemId,
			"ItemName": itemName,
			"ItemType": itemType,
		},
	})
}

// SendPlayCommand validates and translates req, then forwards it to the
// target session's controller, per the full algorithm in spec §4.G.
func (m *Manager) SendPlayCommand(ctx context.Context, controllingSessionId, targetSessionId string, req PlayRequest) error {
	const op = "SendPlayCommand"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	target, controlling, err := m.resolveControl(op, targetSessionId, controllingSessionId)
	if err != nil {
		return err
	}
	if controlling != nil {
		req.ControllingUserId = controlling.UserId
	}

	var user *User
	if m.userManager != nil && target.UserId != "" {
		user, _ = m.userManager.GetUserById(ctx, target.UserId)
	}

	itemIds, err := m.expandPlayItems(ctx, user, req.ItemIds, &req.PlayCommand)
	if err != nil {
		return err
	}

	if err := m.checkPlayAccessAndMediaType(ctx, target, user, itemIds); err != nil {
		return err
	}

	itemIds = m.expandNextEpisodeAutoPlay(ctx, user, itemIds)

	req.ItemIds = itemIds

	ctrl := target.Controller()
	if ctrl == nil {
		return nil
	}
	return ctrl.SendPlayCommand(ctx, req)
}

// expandPlayItems handles PlayInstantMix / PlayShuffle / plain translation.
func (m *Manager) expandPlayItems(ctx context.Context, user *User, itemIds []string, playCommand *PlayCommandVerb) ([]string, error) {
	switch *playCommand {
	case PlayInstantMix:
		var expanded []string
		for _, id := range itemIds {
			item, err := m.getItem(ctx, id)
			if err != nil || item == nil {
				continue
			}
			userId := ""
			if user != nil {
				userId = user.Id
			}
			if m.musicManager == nil {
				continue
			}
			mix, err := m.musicManager.GetInstantMixFromItem(ctx, item, userId)
			if err != nil {
				continue
			}
			for _, mixItem := range mix {
				expanded = append(expanded, mixItem.Id)
			}
		}
		*playCommand = PlayNow
		return expanded, nil

	case PlayShuffle:
		translated, err := m.translateAll(ctx, itemIds)
		if err != nil {
			return nil, err
		}
		m.shuffle(translated)
		*playCommand = PlayNow
		return translated, nil

	default:
		return m.translateAll(ctx, itemIds)
	}
}

func (m *Manager) translateAll(ctx context.Context, itemIds []string) ([]string, error) {
	var out []string
	for _, id := range itemIds {
		translated, err := m.translateItemForPlayback(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, translated...)
	}
	return out, nil
}

func (m *Manager) getItem(ctx context.Context, id string) (*BaseItem, error) {
	if m.libraryManager == nil {
		return nil, nil
	}
	return m.libraryManager.GetItemById(ctx, id)
}

// translateItemForPlayback is TranslateItemForPlayback from spec §4.G: a
// by-name or folder item expands to its dominant-media-type descendants
// sorted by SortName; a leaf item is a single-element list.
func (m *Manager) translateItemForPlayback(ctx context.Context, id string) ([]string, error) {
	item, err := m.getItem(ctx, id)
	if err != nil {
		return nil, sessionerrors.TransientError("translateItemForPlayback", err)
	}
	if item == nil {
		return []string{id}, nil
	}

	switch item.Kind {
	case KindByName, KindFolder:
		if m.libraryManager == nil {
			return nil, nil
		}
		descendants, err := m.libraryManager.GetDescendants(ctx, item)
		if err != nil {
			return nil, sessionerrors.TransientError("translateItemForPlayback", err)
		}
		filtered := filterDominantMediaType(descendants)
		out := make([]string, 0, len(filtered))
		for _, d := range filtered {
			out = append(out, d.Id)
		}
		return out, nil
	default:
		return []string{item.Id}, nil
	}
}

// filterDominantMediaType groups items by media type (case-insensitively),
// keeps only the largest group (ties broken by insertion order), and sorts
// the result by SortName, per spec §4.G step 2.
func filterDominantMediaType(items []*BaseItem) []*BaseItem {
	if len(items) == 0 {
		return nil
	}

	var order []string
	groups := make(map[string][]*BaseItem)
	for _, it := range items {
		if it.IsFolder || it.IsVirtualItem {
			continue
		}
		key := strings.ToLower(it.MediaType)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	var dominant string
	best := -1
	for _, key := range order {
		if len(groups[key]) > best {
			best = len(groups[key])
			dominant = key
		}
	}

	result := append([]*BaseItem(nil), groups[dominant]...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortName < result[j].SortName
	})
	return result
}

// shuffle applies a uniform random permutation to ids using the manager's
// injected PRNG, so behavior is deterministic under test (spec §9).
func (m *Manager) shuffle(ids []string) {
	if m.prng == nil || len(ids) < 2 {
		return
	}
	m.prng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// checkPlayAccessAndMediaType enforces spec §4.G steps 3 and 4.
func (m *Manager) checkPlayAccessAndMediaType(ctx context.Context, target *Session, user *User, itemIds []string) error {
	const op = "SendPlayCommand"
	playable := target.PlayableMediaTypes()

	for _, id := range itemIds {
		item, err := m.getItem(ctx, id)
		if err != nil || item == nil {
			continue
		}

		if user != nil && m.userManager != nil {
			access, err := m.userManager.GetPlayAccess(ctx, user.Id, item)
			if err == nil && access != PlayAccessFull {
				return sessionerrors.InvalidArgumentError(op, fmt.Errorf("user is not allowed to play media"))
			}
		}

		if len(playable) > 0 && !containsFold(playable, item.MediaType) {
			return sessionerrors.InvalidArgumentError(op, fmt.Errorf("unable to play the requested media type"))
		}
	}
	return nil
}

// expandNextEpisodeAutoPlay implements spec §4.G step 5.
func (m *Manager) expandNextEpisodeAutoPlay(ctx context.Context, user *User, itemIds []string) []string {
	if user == nil || !user.EnableNextEpisodeAutoPlay || len(itemIds) != 1 || m.libraryManager == nil {
		return itemIds
	}

	item, err := m.getItem(ctx, itemIds[0])
	if err != nil || item == nil || item.Kind != KindEpisode {
		return itemIds
	}

	episodes, err := m.libraryManager.GetEpisodes(ctx, item.SeriesId)
	if err != nil || len(episodes) == 0 {
		return itemIds
	}

	startIdx := -1
	for i, ep := range episodes {
		if ep.Id == item.Id {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return itemIds
	}

	var expanded []string
	for _, ep := range episodes[startIdx:] {
		if ep.IsVirtualItem {
			continue
		}
		expanded = append(expanded, ep.Id)
	}
	return expanded
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
